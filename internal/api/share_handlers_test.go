package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// enableShare turns on the trip's share link and returns its tokens.
func (ts *testServer) enableShare(t *testing.T, token, tripID string) ShareLinkResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/trips/"+tripID+"/share", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, "Enable share failed: %s", resp.Body.String())

	return decodeEnvelope[ShareLinkResponse](t, resp.Body.Bytes()).Data
}

func TestShareLink_EnableDisable(t *testing.T) {
	ts := newTestServer(t)

	token, _ := ts.registerUser(t, "owner@example.com", "Owner")
	trip := ts.createTrip(t, token, "Japan Spring")

	share := ts.enableShare(t, token, trip.ID)
	assert.NotEmpty(t, share.ShareSlug)
	assert.NotEmpty(t, share.ShareCode)
	assert.True(t, share.ShareLinkEnabled)

	// Re-enabling is idempotent: the tokens never change.
	again := ts.enableShare(t, token, trip.ID)
	assert.Equal(t, share.ShareSlug, again.ShareSlug)
	assert.Equal(t, share.ShareCode, again.ShareCode)

	resp := ts.api.Delete("/api/v1/trips/"+trip.ID+"/share", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	disabled := decodeEnvelope[ShareLinkResponse](t, resp.Body.Bytes()).Data
	assert.False(t, disabled.ShareLinkEnabled)
	// Disable keeps the tokens so old links work again after re-enabling.
	assert.Equal(t, share.ShareSlug, disabled.ShareSlug)
}

func TestShareLink_OwnerOnly(t *testing.T) {
	ts := newTestServer(t)

	ownerToken, _ := ts.registerUser(t, "owner@example.com", "Owner")
	otherToken, _ := ts.registerUser(t, "other@example.com", "Other")

	trip := ts.createTrip(t, ownerToken, "Japan Spring")
	share := ts.enableShare(t, ownerToken, trip.ID)

	// Membership alone does not grant sharing control.
	resp := ts.api.Post("/api/v1/join/"+share.ShareSlug, "Authorization: Bearer "+otherToken)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/trips/"+trip.ID+"/share", "Authorization: Bearer "+otherToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Delete("/api/v1/trips/"+trip.ID+"/share", "Authorization: Bearer "+otherToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestJoinTrip(t *testing.T) {
	ts := newTestServer(t)

	ownerToken, _ := ts.registerUser(t, "owner@example.com", "Owner")
	guestToken, guestID := ts.registerUser(t, "guest@example.com", "Guest")

	trip := ts.createTrip(t, ownerToken, "Japan Spring")
	share := ts.enableShare(t, ownerToken, trip.ID)

	resp := ts.api.Post("/api/v1/join/"+share.ShareSlug, "Authorization: Bearer "+guestToken)
	require.Equal(t, http.StatusOK, resp.Code)

	join := decodeEnvelope[JoinTripResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, trip.ID, join.Trip.ID)
	assert.Equal(t, guestID, join.Membership.UserID)
	assert.Equal(t, "viewer", join.Membership.Role)
	assert.Equal(t, "share_link", join.Membership.GrantedVia)
	assert.False(t, join.AlreadyMember)

	// Joining again is not an error and does not downgrade anything.
	resp = ts.api.Post("/api/v1/join/"+share.ShareSlug, "Authorization: Bearer "+guestToken)
	require.Equal(t, http.StatusOK, resp.Code)
	join = decodeEnvelope[JoinTripResponse](t, resp.Body.Bytes()).Data
	assert.True(t, join.AlreadyMember)

	// The short code redeems just like the slug.
	otherToken, _ := ts.registerUser(t, "other@example.com", "Other")
	resp = ts.api.Post("/api/v1/join/"+share.ShareCode, "Authorization: Bearer "+otherToken)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestJoinTrip_DisabledLink(t *testing.T) {
	ts := newTestServer(t)

	ownerToken, _ := ts.registerUser(t, "owner@example.com", "Owner")
	guestToken, _ := ts.registerUser(t, "guest@example.com", "Guest")

	trip := ts.createTrip(t, ownerToken, "Japan Spring")
	share := ts.enableShare(t, ownerToken, trip.ID)

	resp := ts.api.Delete("/api/v1/trips/"+trip.ID+"/share", "Authorization: Bearer "+ownerToken)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/join/"+share.ShareSlug, "Authorization: Bearer "+guestToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestListMembers_OwnerFirst(t *testing.T) {
	ts := newTestServer(t)

	ownerToken, ownerID := ts.registerUser(t, "owner@example.com", "Owner")
	guestToken, guestID := ts.registerUser(t, "guest@example.com", "Guest")

	trip := ts.createTrip(t, ownerToken, "Japan Spring")
	share := ts.enableShare(t, ownerToken, trip.ID)

	resp := ts.api.Post("/api/v1/join/"+share.ShareSlug, "Authorization: Bearer "+guestToken)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/trips/"+trip.ID+"/members", "Authorization: Bearer "+ownerToken)
	require.Equal(t, http.StatusOK, resp.Code)

	members := decodeEnvelope[ListMembersResponse](t, resp.Body.Bytes()).Data.Members
	require.Len(t, members, 2)
	assert.Equal(t, ownerID, members[0].UserID)
	assert.Equal(t, "owner", members[0].Role)
	assert.Equal(t, guestID, members[1].UserID)
	assert.Equal(t, "viewer", members[1].Role)
}

func TestUpdateMemberRole(t *testing.T) {
	ts := newTestServer(t)

	ownerToken, _ := ts.registerUser(t, "owner@example.com", "Owner")
	guestToken, guestID := ts.registerUser(t, "guest@example.com", "Guest")

	trip := ts.createTrip(t, ownerToken, "Japan Spring")
	share := ts.enableShare(t, ownerToken, trip.ID)

	resp := ts.api.Post("/api/v1/join/"+share.ShareSlug, "Authorization: Bearer "+guestToken)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Patch("/api/v1/trips/"+trip.ID+"/members/"+guestID,
		"Authorization: Bearer "+ownerToken,
		map[string]any{"role": "collaborator"},
	)
	require.Equal(t, http.StatusOK, resp.Code)

	member := decodeEnvelope[MemberResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, "collaborator", member.Role)
	assert.Equal(t, "promotion", member.GrantedVia)

	// The promoted collaborator can now create moments.
	resp = ts.api.Post("/api/v1/trips/"+trip.ID+"/moments",
		"Authorization: Bearer "+guestToken,
		map[string]any{"title": "Ramen in Ichiran"},
	)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestUpdateMemberRole_RejectsOwner(t *testing.T) {
	ts := newTestServer(t)

	ownerToken, _ := ts.registerUser(t, "owner@example.com", "Owner")
	guestToken, guestID := ts.registerUser(t, "guest@example.com", "Guest")

	trip := ts.createTrip(t, ownerToken, "Japan Spring")
	share := ts.enableShare(t, ownerToken, trip.ID)

	resp := ts.api.Post("/api/v1/join/"+share.ShareSlug, "Authorization: Bearer "+guestToken)
	require.Equal(t, http.StatusOK, resp.Code)

	// There is exactly one owner per trip; the role cannot be granted.
	resp = ts.api.Patch("/api/v1/trips/"+trip.ID+"/members/"+guestID,
		"Authorization: Bearer "+ownerToken,
		map[string]any{"role": "owner"},
	)
	assert.GreaterOrEqual(t, resp.Code, 400)
	assert.Less(t, resp.Code, 500)
}

func TestRemoveMember(t *testing.T) {
	ts := newTestServer(t)

	ownerToken, _ := ts.registerUser(t, "owner@example.com", "Owner")
	guestToken, guestID := ts.registerUser(t, "guest@example.com", "Guest")

	trip := ts.createTrip(t, ownerToken, "Japan Spring")
	share := ts.enableShare(t, ownerToken, trip.ID)

	resp := ts.api.Post("/api/v1/join/"+share.ShareSlug, "Authorization: Bearer "+guestToken)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Delete("/api/v1/trips/"+trip.ID+"/members/"+guestID, "Authorization: Bearer "+ownerToken)
	require.Equal(t, http.StatusOK, resp.Code)

	// Access is gone immediately.
	resp = ts.api.Get("/api/v1/trips/"+trip.ID, "Authorization: Bearer "+guestToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestRemoveMember_ProtectsOwner(t *testing.T) {
	ts := newTestServer(t)

	ownerToken, ownerID := ts.registerUser(t, "owner@example.com", "Owner")
	trip := ts.createTrip(t, ownerToken, "Japan Spring")

	resp := ts.api.Delete("/api/v1/trips/"+trip.ID+"/members/"+ownerID, "Authorization: Bearer "+ownerToken)
	assert.GreaterOrEqual(t, resp.Code, 400)
	assert.Less(t, resp.Code, 500)
}

func TestPublicPreview(t *testing.T) {
	ts := newTestServer(t)

	ownerToken, _ := ts.registerUser(t, "owner@example.com", "Owner")
	trip := ts.createTrip(t, ownerToken, "Japan Spring")
	ts.createMoment(t, ownerToken, trip.ID, map[string]any{"title": "Fushimi Inari at dawn"})

	share := ts.enableShare(t, ownerToken, trip.ID)

	// No Authorization header: the preview is public.
	resp := ts.api.Get("/api/v1/public/trips/" + share.ShareSlug)
	require.Equal(t, http.StatusOK, resp.Code)

	preview := decodeEnvelope[PublicPreviewResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, trip.ID, preview.Trip.ID)
	require.Len(t, preview.Moments, 1)
	assert.Equal(t, "Fushimi Inari at dawn", preview.Moments[0].Title)
}

func TestPublicPreview_DisabledLink(t *testing.T) {
	ts := newTestServer(t)

	ownerToken, _ := ts.registerUser(t, "owner@example.com", "Owner")
	trip := ts.createTrip(t, ownerToken, "Japan Spring")
	share := ts.enableShare(t, ownerToken, trip.ID)

	resp := ts.api.Delete("/api/v1/trips/"+trip.ID+"/share", "Authorization: Bearer "+ownerToken)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/public/trips/" + share.ShareSlug)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
