package store

import (
	"context"

	"github.com/driftlog/driftlog-server/internal/domain"
)

// GetPermission returns the permission row for a (trip, user) pair.
// Returns ErrNotFound when the user holds no role on the trip.
func (s *Store) GetPermission(ctx context.Context, tripID, userID string) (*domain.TripPermission, error) {
	return s.Permissions.GetByIndex(ctx, "trip_user", permissionPairKey(tripID, userID))
}

// ListPermissionsByTrip returns every permission row on a trip.
func (s *Store) ListPermissionsByTrip(ctx context.Context, tripID string) ([]*domain.TripPermission, error) {
	return s.Permissions.ListByIndex(ctx, "trip", tripID)
}

// ListPermissionsForUser returns every permission row a user holds.
func (s *Store) ListPermissionsForUser(ctx context.Context, userID string) ([]*domain.TripPermission, error) {
	return s.Permissions.ListByIndex(ctx, "user", userID)
}
