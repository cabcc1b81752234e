package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/driftlog/driftlog-server/internal/domain"
)

// CreateTripWithOwner writes the trip and its owner permission row in a
// single transaction, so a trip can never exist without exactly one owner
// record (and vice versa).
func (s *Store) CreateTripWithOwner(ctx context.Context, trip *domain.Trip, ownerPerm *domain.TripPermission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if trip.OwnerID != ownerPerm.UserID || trip.ID != ownerPerm.TripID {
		return ErrInvalidInput.WithMessage("owner permission does not match trip")
	}
	if ownerPerm.Role != domain.RoleOwner {
		return ErrInvalidInput.WithMessage("trip creation requires an owner role")
	}

	tripData, err := json.Marshal(trip)
	if err != nil {
		return fmt.Errorf("failed to marshal trip: %w", err)
	}
	permData, err := json.Marshal(ownerPerm)
	if err != nil {
		return fmt.Errorf("failed to marshal permission: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := s.Trips.createInTxn(txn, "trip:"+trip.ID, trip.ID, trip, tripData); err != nil {
			return err
		}
		return s.Permissions.createInTxn(txn, "perm:"+ownerPerm.ID, ownerPerm.ID, ownerPerm, permData)
	})
	if err != nil {
		return err
	}

	if err := s.searchIndexer.IndexTrip(ctx, trip); err != nil && s.logger != nil {
		s.logger.Warn("failed to index trip", "trip_id", trip.ID, "error", err)
	}

	return nil
}

// UpdateTrip persists trip changes and refreshes the search index.
func (s *Store) UpdateTrip(ctx context.Context, trip *domain.Trip) error {
	if err := s.Trips.Update(ctx, trip.ID, trip); err != nil {
		return err
	}
	if err := s.searchIndexer.IndexTrip(ctx, trip); err != nil && s.logger != nil {
		s.logger.Warn("failed to index trip", "trip_id", trip.ID, "error", err)
	}
	return nil
}

// GetTripBySlugOrCode resolves a trip from either of its share tokens.
// The slug is matched exactly; the code is matched case-insensitively.
func (s *Store) GetTripBySlugOrCode(ctx context.Context, token string) (*domain.Trip, error) {
	trip, err := s.Trips.GetByIndex(ctx, "slug", token)
	if err == nil {
		return trip, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.Trips.GetByIndex(ctx, "code", token)
}

// ListTripsForUser returns every trip the user holds a permission row on,
// newest first. Soft-deleted trips are excluded.
func (s *Store) ListTripsForUser(ctx context.Context, userID string) ([]*domain.Trip, error) {
	perms, err := s.Permissions.ListByIndex(ctx, "user", userID)
	if err != nil {
		return nil, err
	}

	trips := make([]*domain.Trip, 0, len(perms))
	for _, p := range perms {
		trip, err := s.Trips.Get(ctx, p.TripID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if trip.IsDeleted() {
			continue
		}
		trips = append(trips, trip)
	}

	sort.Slice(trips, func(i, j int) bool {
		return trips[i].CreatedAt.After(trips[j].CreatedAt)
	})
	return trips, nil
}

// DeleteTripCascade tears down a trip: moments and the trip itself become
// tombstones for sync clients, while permission rows and media records are
// removed outright. Object storage cleanup is the caller's job; it should
// collect storage keys before calling this.
func (s *Store) DeleteTripCascade(ctx context.Context, tripID string) error {
	trip, err := s.Trips.Get(ctx, tripID)
	if err != nil {
		return err
	}

	moments, err := s.Moments.ListByIndex(ctx, "trip", tripID)
	if err != nil {
		return err
	}
	for _, m := range moments {
		if m.IsDeleted() {
			continue
		}
		m.MarkDeleted()
		if err := s.Moments.Update(ctx, m.ID, m); err != nil {
			return fmt.Errorf("failed to tombstone moment %s: %w", m.ID, err)
		}
		if err := s.searchIndexer.DeleteMoment(ctx, m.ID); err != nil && s.logger != nil {
			s.logger.Warn("failed to deindex moment", "moment_id", m.ID, "error", err)
		}
	}

	media, err := s.Media.ListByIndex(ctx, "trip", tripID)
	if err != nil {
		return err
	}
	for _, item := range media {
		if err := s.Media.Delete(ctx, item.ID); err != nil {
			return fmt.Errorf("failed to delete media %s: %w", item.ID, err)
		}
	}

	perms, err := s.Permissions.ListByIndex(ctx, "trip", tripID)
	if err != nil {
		return err
	}
	for _, p := range perms {
		if err := s.Permissions.Delete(ctx, p.ID); err != nil {
			return fmt.Errorf("failed to delete permission %s: %w", p.ID, err)
		}
	}

	trip.MarkDeleted()
	if err := s.Trips.Update(ctx, tripID, trip); err != nil {
		return err
	}

	if err := s.searchIndexer.DeleteTrip(ctx, tripID); err != nil && s.logger != nil {
		s.logger.Warn("failed to deindex trip", "trip_id", tripID, "error", err)
	}

	if s.logger != nil {
		s.logger.Info("trip deleted",
			"trip_id", tripID,
			"moments", len(moments),
			"media", len(media),
			"permissions", len(perms),
		)
	}

	return nil
}

// TouchEntity updates the UpdatedAt timestamp for an entity by ID.
// Implements domain.CascadeUpdater.
func (s *Store) TouchEntity(ctx context.Context, entityType string, id string) error {
	now := time.Now().UTC()
	switch entityType {
	case "trip":
		trip, err := s.Trips.Get(ctx, id)
		if err != nil {
			return err
		}
		trip.UpdatedAt = now
		return s.Trips.Update(ctx, id, trip)
	case "moment":
		moment, err := s.Moments.Get(ctx, id)
		if err != nil {
			return err
		}
		moment.UpdatedAt = now
		return s.Moments.Update(ctx, id, moment)
	default:
		return ErrInvalidInput.WithMessage("unknown entity type " + entityType)
	}
}
