package domain

import (
	"context"
	"time"
)

// CascadeUpdater updates entity timestamps without loading full records.
// Deletes and membership changes fan out through this so clients syncing on
// UpdatedAt see everything a change touched.
type CascadeUpdater interface {
	// TouchEntity updates the UpdatedAt timestamp for an entity by ID.
	TouchEntity(ctx context.Context, entityType string, id string) error
	// GetMomentIDsByTrip retrieves moment IDs without loading full moment data.
	GetMomentIDsByTrip(ctx context.Context, tripID string) ([]string, error)
}

// CascadeTripUpdate touches a trip when any of its contents change, so a
// client syncing trips alone still notices the trip moved.
func CascadeTripUpdate(ctx context.Context, updater CascadeUpdater, tripID string) error {
	return updater.TouchEntity(ctx, "trip", tripID)
}

// CascadeTripDelete touches every moment of a trip ahead of a trip delete so
// sync clients pick up the tombstones.
func CascadeTripDelete(ctx context.Context, updater CascadeUpdater, tripID string) error {
	if err := updater.TouchEntity(ctx, "trip", tripID); err != nil {
		return err
	}

	momentIDs, err := updater.GetMomentIDsByTrip(ctx, tripID)
	if err != nil {
		return err
	}

	for _, momentID := range momentIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := updater.TouchEntity(ctx, "moment", momentID); err != nil {
			return err
		}
	}

	return nil
}

// GetCurrentCheckpoint returns the most recent UpdatedAt across a trip's
// moments. Used for sync delta queries.
func GetCurrentCheckpoint(moments []*Moment) time.Time {
	var latest time.Time

	for _, m := range moments {
		if m.UpdatedAt.After(latest) {
			latest = m.UpdatedAt
		}
	}

	return latest
}
