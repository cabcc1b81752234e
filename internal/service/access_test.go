package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlog/driftlog-server/internal/domain"
	apperr "github.com/driftlog/driftlog-server/internal/errors"
)

func TestResolveRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	stranger := env.newUser(t, "stranger@example.com")
	trip := env.newTrip(t, owner.ID, "Iceland 2025")

	role, err := env.access.ResolveRole(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, role)

	role, err = env.access.ResolveRole(ctx, trip.ID, stranger.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleNone, role)

	// Unknown trips resolve to none rather than erroring.
	role, err = env.access.ResolveRole(ctx, "trip_missing", owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleNone, role)
}

func TestGenerateShareLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")

	shared, err := env.access.GenerateShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, shared.ShareLinkEnabled)
	assert.NotEmpty(t, shared.ShareSlug)
	assert.NotEmpty(t, shared.ShareCode)
	assert.Contains(t, shared.ShareSlug, "japan-spring-")

	// Generating again keeps the same tokens.
	again, err := env.access.GenerateShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.ShareSlug, again.ShareSlug)
	assert.Equal(t, shared.ShareCode, again.ShareCode)
}

func TestGenerateShareLink_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	member := env.newUser(t, "member@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")

	// Even a collaborator may not manage sharing.
	shared, err := env.access.GenerateShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	_, err = env.access.JoinViaLink(ctx, shared.ShareSlug, member.ID)
	require.NoError(t, err)
	_, err = env.access.UpdatePermission(ctx, trip.ID, owner.ID, member.ID, domain.RoleCollaborator)
	require.NoError(t, err)

	_, err = env.access.DisableShareLink(ctx, trip.ID, member.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestDisableShareLink_KeepsTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")

	shared, err := env.access.GenerateShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)

	disabled, err := env.access.DisableShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, disabled.ShareLinkEnabled)
	assert.Equal(t, shared.ShareSlug, disabled.ShareSlug)

	// Re-enabling restores the original URL.
	reenabled, err := env.access.GenerateShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, reenabled.ShareLinkEnabled)
	assert.Equal(t, shared.ShareSlug, reenabled.ShareSlug)
	assert.Equal(t, shared.ShareCode, reenabled.ShareCode)
}

func TestJoinViaLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	joiner := env.newUser(t, "joiner@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")

	shared, err := env.access.GenerateShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)

	result, err := env.access.JoinViaLink(ctx, shared.ShareSlug, joiner.ID)
	require.NoError(t, err)
	assert.False(t, result.AlreadyMember)
	assert.Equal(t, domain.RoleViewer, result.Permission.Role)
	assert.Equal(t, domain.GrantedViaShareLink, result.Permission.GrantedVia)
	assert.Equal(t, owner.ID, result.Permission.InvitedBy)

	// Joining again is a no-op, not an error.
	rejoin, err := env.access.JoinViaLink(ctx, shared.ShareSlug, joiner.ID)
	require.NoError(t, err)
	assert.True(t, rejoin.AlreadyMember)
	assert.Equal(t, result.Permission.ID, rejoin.Permission.ID)

	// The share code works as well as the slug.
	codeJoiner := env.newUser(t, "codejoiner@example.com")
	byCode, err := env.access.JoinViaLink(ctx, shared.ShareCode, codeJoiner.ID)
	require.NoError(t, err)
	assert.False(t, byCode.AlreadyMember)
}

func TestJoinViaLink_Disabled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	member := env.newUser(t, "member@example.com")
	late := env.newUser(t, "late@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")

	shared, err := env.access.GenerateShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	_, err = env.access.JoinViaLink(ctx, shared.ShareSlug, member.ID)
	require.NoError(t, err)

	_, err = env.access.DisableShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)

	// New joins are rejected.
	_, err = env.access.JoinViaLink(ctx, shared.ShareSlug, late.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	// Existing members opening the stale link are still recognized.
	rejoin, err := env.access.JoinViaLink(ctx, shared.ShareSlug, member.ID)
	require.NoError(t, err)
	assert.True(t, rejoin.AlreadyMember)
}

func TestJoinViaLink_UnknownToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.newUser(t, "user@example.com")

	_, err := env.access.JoinViaLink(ctx, "nothing-here-abcd", user.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListMembers_OwnerFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	a := env.newUser(t, "a@example.com")
	b := env.newUser(t, "b@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")

	shared, err := env.access.GenerateShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	_, err = env.access.JoinViaLink(ctx, shared.ShareSlug, a.ID)
	require.NoError(t, err)
	_, err = env.access.JoinViaLink(ctx, shared.ShareSlug, b.ID)
	require.NoError(t, err)

	members, err := env.access.ListMembers(ctx, trip.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, owner.ID, members[0].UserID)
	assert.Equal(t, domain.RoleOwner, members[0].Role)
}

func TestUpdatePermission_Promotion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	member := env.newUser(t, "member@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")

	shared, err := env.access.GenerateShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	_, err = env.access.JoinViaLink(ctx, shared.ShareSlug, member.ID)
	require.NoError(t, err)

	perm, err := env.access.UpdatePermission(ctx, trip.ID, owner.ID, member.ID, domain.RoleCollaborator)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCollaborator, perm.Role)
	assert.Equal(t, domain.GrantedViaPromotion, perm.GrantedVia)
	assert.Equal(t, owner.ID, perm.InvitedBy)
}

func TestUpdatePermission_CollaboratorLimits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	collabA := env.newUser(t, "collab-a@example.com")
	collabB := env.newUser(t, "collab-b@example.com")
	viewer := env.newUser(t, "viewer@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")

	shared, err := env.access.GenerateShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	for _, u := range []*domain.User{collabA, collabB, viewer} {
		_, err = env.access.JoinViaLink(ctx, shared.ShareSlug, u.ID)
		require.NoError(t, err)
	}
	_, err = env.access.UpdatePermission(ctx, trip.ID, owner.ID, collabA.ID, domain.RoleCollaborator)
	require.NoError(t, err)
	_, err = env.access.UpdatePermission(ctx, trip.ID, owner.ID, collabB.ID, domain.RoleCollaborator)
	require.NoError(t, err)

	// A collaborator may promote a viewer.
	perm, err := env.access.UpdatePermission(ctx, trip.ID, collabA.ID, viewer.ID, domain.RoleCollaborator)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCollaborator, perm.Role)

	// But may not touch another collaborator's role.
	_, err = env.access.UpdatePermission(ctx, trip.ID, collabA.ID, collabB.ID, domain.RoleViewer)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	// And never the owner's.
	_, err = env.access.UpdatePermission(ctx, trip.ID, collabA.ID, owner.ID, domain.RoleViewer)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUpdatePermission_ViewerForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	viewerA := env.newUser(t, "viewer-a@example.com")
	viewerB := env.newUser(t, "viewer-b@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")

	shared, err := env.access.GenerateShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	_, err = env.access.JoinViaLink(ctx, shared.ShareSlug, viewerA.ID)
	require.NoError(t, err)
	_, err = env.access.JoinViaLink(ctx, shared.ShareSlug, viewerB.ID)
	require.NoError(t, err)

	_, err = env.access.UpdatePermission(ctx, trip.ID, viewerA.ID, viewerB.ID, domain.RoleCollaborator)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestUpdatePermission_RejectsOwnerRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	member := env.newUser(t, "member@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")

	shared, err := env.access.GenerateShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	_, err = env.access.JoinViaLink(ctx, shared.ShareSlug, member.ID)
	require.NoError(t, err)

	// Ownership is not grantable through role changes.
	_, err = env.access.UpdatePermission(ctx, trip.ID, owner.ID, member.ID, domain.RoleOwner)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRemoveAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	member := env.newUser(t, "member@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")

	shared, err := env.access.GenerateShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	_, err = env.access.JoinViaLink(ctx, shared.ShareSlug, member.ID)
	require.NoError(t, err)

	require.NoError(t, env.access.RemoveAccess(ctx, trip.ID, owner.ID, member.ID))

	role, err := env.access.ResolveRole(ctx, trip.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleNone, role)

	// Removing someone who is not a member reports not found.
	err = env.access.RemoveAccess(ctx, trip.ID, owner.ID, member.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRemoveAccess_ProtectsOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.newUser(t, "owner@example.com")
	collab := env.newUser(t, "collab@example.com")
	trip := env.newTrip(t, owner.ID, "Japan Spring")

	shared, err := env.access.GenerateShareLink(ctx, trip.ID, owner.ID)
	require.NoError(t, err)
	_, err = env.access.JoinViaLink(ctx, shared.ShareSlug, collab.ID)
	require.NoError(t, err)
	_, err = env.access.UpdatePermission(ctx, trip.ID, owner.ID, collab.ID, domain.RoleCollaborator)
	require.NoError(t, err)

	// Collaborators cannot remove members at all.
	err = env.access.RemoveAccess(ctx, trip.ID, collab.ID, owner.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	// The owner cannot remove themselves.
	err = env.access.RemoveAccess(ctx, trip.ID, owner.ID, owner.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)
}
