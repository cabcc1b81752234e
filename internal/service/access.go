// Package service implements Driftlog's business logic on top of the store:
// trips, moments, the canvas, media, sharing, and authentication.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/driftlog/driftlog-server/internal/domain"
	apperr "github.com/driftlog/driftlog-server/internal/errors"
	"github.com/driftlog/driftlog-server/internal/id"
	"github.com/driftlog/driftlog-server/internal/sse"
	"github.com/driftlog/driftlog-server/internal/store"
	"github.com/driftlog/driftlog-server/internal/util"
)

const (
	// Share tokens get this many random characters on the first attempts.
	shareSlugSuffixLen = 4
	shareCodeDigitLen  = 2

	// After repeated collisions the suffix doubles, which makes another
	// collision effectively impossible.
	shareSlugSuffixLenLong = 8
	shareCodeDigitLenLong  = 4

	shareLinkMaxAttempts = 5
)

// AccessService is the permission engine: it resolves a user's role on a
// trip, gates mutating operations, and manages share links and membership.
type AccessService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewAccessService creates a new access service.
func NewAccessService(st *store.Store, logger *slog.Logger) *AccessService {
	return &AccessService{
		store:  st,
		logger: logger,
	}
}

// ResolveRole returns the role a user holds on a trip. The owner's role comes
// from the trip record itself; everyone else needs a permission row. A user
// with no row, or a trip that does not exist, resolves to RoleNone.
func (s *AccessService) ResolveRole(ctx context.Context, tripID, userID string) (domain.Role, error) {
	trip, err := s.store.Trips.Get(ctx, tripID)
	if apperr.Is(err, store.ErrNotFound) {
		return domain.RoleNone, nil
	}
	if err != nil {
		return domain.RoleNone, fmt.Errorf("get trip: %w", err)
	}
	if trip.IsDeleted() {
		return domain.RoleNone, nil
	}
	if trip.OwnerID == userID {
		return domain.RoleOwner, nil
	}

	perm, err := s.store.GetPermission(ctx, tripID, userID)
	if apperr.Is(err, store.ErrNotFound) {
		return domain.RoleNone, nil
	}
	if err != nil {
		return domain.RoleNone, fmt.Errorf("get permission: %w", err)
	}
	return perm.Role, nil
}

// CanView reports whether the user may read the trip. Errors resolve to
// false; the signature matches sse.TripAccessChecker so the SSE manager can
// use this directly for broadcast filtering.
func (s *AccessService) CanView(ctx context.Context, userID, tripID string) bool {
	role, err := s.ResolveRole(ctx, tripID, userID)
	if err != nil {
		return false
	}
	return role.CanView()
}

// CanEdit reports whether the user may modify the trip's moments and media.
func (s *AccessService) CanEdit(ctx context.Context, userID, tripID string) bool {
	role, err := s.ResolveRole(ctx, tripID, userID)
	if err != nil {
		return false
	}
	return role.CanEdit()
}

// RequireView gates read operations. Returns the resolved role on success.
func (s *AccessService) RequireView(ctx context.Context, tripID, userID string) (domain.Role, error) {
	role, err := s.ResolveRole(ctx, tripID, userID)
	if err != nil {
		return domain.RoleNone, err
	}
	if !role.CanView() {
		return domain.RoleNone, apperr.Forbidden("you do not have access to this trip")
	}
	return role, nil
}

// RequireEdit gates write operations on moments and media.
func (s *AccessService) RequireEdit(ctx context.Context, tripID, userID string) (domain.Role, error) {
	role, err := s.ResolveRole(ctx, tripID, userID)
	if err != nil {
		return domain.RoleNone, err
	}
	if !role.CanView() {
		return domain.RoleNone, apperr.Forbidden("you do not have access to this trip")
	}
	if !role.CanEdit() {
		return domain.RoleNone, apperr.Forbidden("viewers cannot make changes to this trip")
	}
	return role, nil
}

// RequireManage gates access management. Only the owner passes.
func (s *AccessService) RequireManage(ctx context.Context, tripID, userID string) (domain.Role, error) {
	role, err := s.ResolveRole(ctx, tripID, userID)
	if err != nil {
		return domain.RoleNone, err
	}
	if !role.CanView() {
		return domain.RoleNone, apperr.Forbidden("you do not have access to this trip")
	}
	if !role.CanManageAccess() {
		return domain.RoleNone, apperr.Forbidden("only the trip owner can manage sharing and members")
	}
	return role, nil
}

// GenerateShareLink issues (or re-enables) the trip's share slug and code.
// Owner-only and idempotent: a trip that already has tokens keeps them, so
// previously shared links never break. Fresh tokens are retried on global
// collisions, falling back to a longer random suffix.
func (s *AccessService) GenerateShareLink(ctx context.Context, tripID, userID string) (*domain.Trip, error) {
	if _, err := s.RequireManage(ctx, tripID, userID); err != nil {
		return nil, err
	}

	trip, err := s.store.Trips.Get(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("get trip: %w", err)
	}

	if trip.HasShareLink() {
		if trip.ShareLinkEnabled {
			return trip, nil
		}
		trip.ShareLinkEnabled = true
		trip.Touch()
		if err := s.store.Trips.Update(ctx, trip.ID, trip); err != nil {
			return nil, fmt.Errorf("enable share link: %w", err)
		}
		s.store.Emitter().Emit(sse.NewTripUpdatedEvent(trip))
		return trip, nil
	}

	slugLen, codeLen := shareSlugSuffixLen, shareCodeDigitLen
	for attempt := 0; ; attempt++ {
		if attempt >= shareLinkMaxAttempts {
			// Last resort: a suffix long enough that collisions stop being
			// a realistic concern.
			slugLen, codeLen = shareSlugSuffixLenLong, shareCodeDigitLenLong
		}

		slug, err := util.ShareSlug(trip.Title, slugLen)
		if err != nil {
			return nil, fmt.Errorf("generate share slug: %w", err)
		}
		code, err := util.ShareCode(trip.Title, codeLen)
		if err != nil {
			return nil, fmt.Errorf("generate share code: %w", err)
		}

		trip.ShareSlug = slug
		trip.ShareCode = code
		trip.ShareLinkEnabled = true
		trip.Touch()

		err = s.store.Trips.Update(ctx, trip.ID, trip)
		if err == nil {
			break
		}
		if !apperr.Is(err, store.ErrAlreadyExists) {
			return nil, fmt.Errorf("save share link: %w", err)
		}
		if attempt >= shareLinkMaxAttempts {
			return nil, apperr.Internal("could not generate a unique share link")
		}
	}

	s.logger.Info("share link generated",
		"trip_id", trip.ID,
		"share_slug", trip.ShareSlug,
		"share_code", trip.ShareCode,
	)
	s.store.Emitter().Emit(sse.NewTripUpdatedEvent(trip))
	return trip, nil
}

// DisableShareLink turns off link joining without discarding the slug and
// code, so re-enabling restores the same URL. Owner-only, idempotent.
func (s *AccessService) DisableShareLink(ctx context.Context, tripID, userID string) (*domain.Trip, error) {
	if _, err := s.RequireManage(ctx, tripID, userID); err != nil {
		return nil, err
	}

	trip, err := s.store.Trips.Get(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("get trip: %w", err)
	}
	if !trip.ShareLinkEnabled {
		return trip, nil
	}

	trip.ShareLinkEnabled = false
	trip.Touch()
	if err := s.store.Trips.Update(ctx, trip.ID, trip); err != nil {
		return nil, fmt.Errorf("disable share link: %w", err)
	}

	s.logger.Info("share link disabled", "trip_id", trip.ID)
	s.store.Emitter().Emit(sse.NewTripUpdatedEvent(trip))
	return trip, nil
}

// JoinResult describes the outcome of redeeming a share link.
type JoinResult struct {
	Trip          *domain.Trip           `json:"trip"`
	Permission    *domain.TripPermission `json:"permission"`
	AlreadyMember bool                   `json:"already_member"`
}

// JoinViaLink redeems a share slug or code, granting the user viewer access.
// Joining a trip you already belong to is not an error; the existing
// membership is returned unchanged.
func (s *AccessService) JoinViaLink(ctx context.Context, token, userID string) (*JoinResult, error) {
	trip, err := s.store.GetTripBySlugOrCode(ctx, token)
	if apperr.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("no trip matches this link")
	}
	if err != nil {
		return nil, fmt.Errorf("resolve share token: %w", err)
	}
	if trip.IsDeleted() {
		return nil, apperr.NotFound("no trip matches this link")
	}

	// The owner holds a permission row from trip creation, so this also
	// covers an owner redeeming their own link.
	if perm, err := s.store.GetPermission(ctx, trip.ID, userID); err == nil {
		return &JoinResult{Trip: trip, Permission: perm, AlreadyMember: true}, nil
	} else if !apperr.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get permission: %w", err)
	}

	if !trip.IsJoinable() {
		return nil, apperr.Forbidden("sharing is disabled for this trip")
	}

	permID, err := id.Generate("perm")
	if err != nil {
		return nil, fmt.Errorf("generate permission ID: %w", err)
	}
	perm := &domain.TripPermission{
		Syncable:   domain.Syncable{ID: permID},
		TripID:     trip.ID,
		UserID:     userID,
		Role:       domain.RoleViewer,
		GrantedVia: domain.GrantedViaShareLink,
		InvitedBy:  trip.OwnerID,
	}
	perm.InitTimestamps()

	if err := s.store.Permissions.Create(ctx, perm.ID, perm); err != nil {
		if apperr.Is(err, store.ErrAlreadyExists) {
			// Lost a race with a concurrent join by the same user.
			existing, getErr := s.store.GetPermission(ctx, trip.ID, userID)
			if getErr != nil {
				return nil, fmt.Errorf("get permission after conflict: %w", getErr)
			}
			return &JoinResult{Trip: trip, Permission: existing, AlreadyMember: true}, nil
		}
		return nil, fmt.Errorf("create permission: %w", err)
	}

	s.logger.Info("user joined trip via share link",
		"trip_id", trip.ID,
		"user_id", userID,
	)
	s.store.Emitter().Emit(sse.NewMemberJoinedEvent(trip.ID, userID, domain.RoleViewer))
	return &JoinResult{Trip: trip, Permission: perm}, nil
}

// ListMembers returns a trip's permission rows, owner first, then by join
// time. Any member may see the member list.
func (s *AccessService) ListMembers(ctx context.Context, tripID, userID string) ([]*domain.TripPermission, error) {
	if _, err := s.RequireView(ctx, tripID, userID); err != nil {
		return nil, err
	}

	perms, err := s.store.ListPermissionsByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}

	sort.SliceStable(perms, func(i, j int) bool {
		if (perms[i].Role == domain.RoleOwner) != (perms[j].Role == domain.RoleOwner) {
			return perms[i].Role == domain.RoleOwner
		}
		return perms[i].CreatedAt.Before(perms[j].CreatedAt)
	})
	return perms, nil
}

// UpdatePermission changes a member's role. The owner may set any non-owner
// row to collaborator or viewer; a collaborator may only change rows that
// are currently viewer. The owner's own row is immutable.
func (s *AccessService) UpdatePermission(ctx context.Context, tripID, requesterID, targetUserID string, newRole domain.Role) (*domain.TripPermission, error) {
	if newRole != domain.RoleCollaborator && newRole != domain.RoleViewer {
		return nil, apperr.Validationf("role must be collaborator or viewer, got %q", newRole)
	}

	requesterRole, err := s.ResolveRole(ctx, tripID, requesterID)
	if err != nil {
		return nil, err
	}
	if !requesterRole.CanView() {
		return nil, apperr.Forbidden("you do not have access to this trip")
	}
	if !requesterRole.CanEdit() {
		return nil, apperr.Forbidden("viewers cannot change member roles")
	}

	trip, err := s.store.Trips.Get(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("get trip: %w", err)
	}
	if trip.OwnerID == targetUserID {
		return nil, apperr.Forbidden("the owner's role cannot be changed")
	}

	perm, err := s.store.GetPermission(ctx, tripID, targetUserID)
	if apperr.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("that user is not a member of this trip")
	}
	if err != nil {
		return nil, fmt.Errorf("get permission: %w", err)
	}

	if requesterRole == domain.RoleCollaborator && perm.Role != domain.RoleViewer {
		return nil, apperr.Forbidden("collaborators can only change the role of viewers")
	}

	if perm.Role == newRole {
		return perm, nil
	}

	perm.Role = newRole
	perm.GrantedVia = domain.GrantedViaPromotion
	perm.InvitedBy = requesterID
	perm.Touch()
	if err := s.store.Permissions.Update(ctx, perm.ID, perm); err != nil {
		return nil, fmt.Errorf("update permission: %w", err)
	}

	s.logger.Info("member role changed",
		"trip_id", tripID,
		"user_id", targetUserID,
		"role", newRole,
		"changed_by", requesterID,
	)
	s.store.Emitter().Emit(sse.NewMemberUpdatedEvent(tripID, targetUserID, newRole))
	return perm, nil
}

// RemoveAccess revokes a member's permission row. Owner-only; the owner's
// own row can never be removed (delete the trip instead). The removed user
// is notified directly, since the broadcast filter would otherwise drop the
// event for them.
func (s *AccessService) RemoveAccess(ctx context.Context, tripID, requesterID, targetUserID string) error {
	if _, err := s.RequireManage(ctx, tripID, requesterID); err != nil {
		return err
	}

	trip, err := s.store.Trips.Get(ctx, tripID)
	if err != nil {
		return fmt.Errorf("get trip: %w", err)
	}
	if trip.OwnerID == targetUserID {
		return apperr.Forbidden("the owner cannot be removed from their own trip")
	}

	perm, err := s.store.GetPermission(ctx, tripID, targetUserID)
	if apperr.Is(err, store.ErrNotFound) {
		return apperr.NotFound("that user is not a member of this trip")
	}
	if err != nil {
		return fmt.Errorf("get permission: %w", err)
	}

	if err := s.store.Permissions.Delete(ctx, perm.ID); err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}

	s.logger.Info("member removed",
		"trip_id", tripID,
		"user_id", targetUserID,
		"removed_by", requesterID,
	)
	removed := sse.NewMemberRemovedEvent(tripID, targetUserID)
	removed.UserID = targetUserID
	s.store.Emitter().Emit(removed)
	return nil
}
