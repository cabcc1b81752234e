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

// MomentPositionUpdate pairs a moment id with its new grid position for a
// batch write.
type MomentPositionUpdate struct {
	MomentID string              `json:"moment_id"`
	Position domain.GridPosition `json:"position"`
}

// CreateMoment persists a new moment and adds it to the search index.
func (s *Store) CreateMoment(ctx context.Context, moment *domain.Moment) error {
	if err := s.Moments.Create(ctx, moment.ID, moment); err != nil {
		return err
	}
	if err := s.searchIndexer.IndexMoment(ctx, moment); err != nil && s.logger != nil {
		s.logger.Warn("failed to index moment", "moment_id", moment.ID, "error", err)
	}
	return nil
}

// UpdateMoment persists moment changes and refreshes the search index.
func (s *Store) UpdateMoment(ctx context.Context, moment *domain.Moment) error {
	if err := s.Moments.Update(ctx, moment.ID, moment); err != nil {
		return err
	}
	if err := s.searchIndexer.IndexMoment(ctx, moment); err != nil && s.logger != nil {
		s.logger.Warn("failed to index moment", "moment_id", moment.ID, "error", err)
	}
	return nil
}

// ListMomentsByTrip returns a trip's live moments in chronological packing
// order. Tombstoned moments are excluded.
func (s *Store) ListMomentsByTrip(ctx context.Context, tripID string) ([]*domain.Moment, error) {
	all, err := s.Moments.ListByIndex(ctx, "trip", tripID)
	if err != nil {
		return nil, err
	}

	moments := make([]*domain.Moment, 0, len(all))
	for _, m := range all {
		if m.IsDeleted() {
			continue
		}
		moments = append(moments, m)
	}

	sort.SliceStable(moments, func(i, j int) bool {
		return moments[i].ChronoBefore(moments[j])
	})
	return moments, nil
}

// GetMomentIDsByTrip retrieves moment IDs without loading full moment data.
// Implements domain.CascadeUpdater.
func (s *Store) GetMomentIDsByTrip(ctx context.Context, tripID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scanPrefix := []byte("moment:idx:trip:" + tripID + ":")

	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = scanPrefix
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(scanPrefix); it.ValidForPrefix(scanPrefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// BatchUpdateMomentPositions applies a reflowed position set in a single
// transaction: either every moment in the batch moves or none does, so the
// store never holds a partially-reflowed canvas.
//
// All moments must belong to tripID; a stale id or a tombstoned moment fails
// the whole batch. Authorization happens before this is called.
func (s *Store) BatchUpdateMomentPositions(ctx context.Context, tripID string, updates []MomentPositionUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	now := time.Now().UTC()

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, u := range updates {
			key := buildKey("moment:", u.MomentID)

			item, err := txn.Get(key)
			releaseKey(key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound.WithMessage("moment " + u.MomentID + " not found")
			}
			if err != nil {
				return fmt.Errorf("failed to get moment %s: %w", u.MomentID, err)
			}

			var moment domain.Moment
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &moment)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal moment %s: %w", u.MomentID, err)
			}

			if moment.TripID != tripID {
				return ErrInvalidInput.WithMessage("moment " + u.MomentID + " belongs to a different trip")
			}
			if moment.IsDeleted() {
				return ErrNotFound.WithMessage("moment " + u.MomentID + " was deleted")
			}
			if !u.Position.Valid() {
				return ErrInvalidInput.WithMessage("invalid grid position for moment " + u.MomentID)
			}

			moment.GridPosition = u.Position
			moment.UpdatedAt = now

			data, err := json.Marshal(&moment)
			if err != nil {
				return fmt.Errorf("failed to marshal moment %s: %w", u.MomentID, err)
			}
			if err := txn.Set([]byte("moment:"+u.MomentID), data); err != nil {
				return fmt.Errorf("failed to set moment %s: %w", u.MomentID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Debug("batch position update applied", "trip_id", tripID, "count", len(updates))
	}

	return nil
}

// RemoveMediaFromMoments pulls a media id out of every referencing moment in
// the trip. Moments are never deleted by this; an empty reference list is
// fine. Returns the ids of the moments that changed.
func (s *Store) RemoveMediaFromMoments(ctx context.Context, tripID, mediaID string) ([]string, error) {
	moments, err := s.ListMomentsByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	var changed []string
	for _, m := range moments {
		if !m.RemoveMedia(mediaID) {
			continue
		}
		m.Touch()
		if err := s.Moments.Update(ctx, m.ID, m); err != nil {
			return changed, err
		}
		changed = append(changed, m.ID)
	}
	return changed, nil
}

// SoftDeleteMoment tombstones a moment so sync clients pick up the removal.
func (s *Store) SoftDeleteMoment(ctx context.Context, momentID string) error {
	moment, err := s.Moments.Get(ctx, momentID)
	if err != nil {
		return err
	}
	if moment.IsDeleted() {
		return nil
	}

	moment.MarkDeleted()
	if err := s.Moments.Update(ctx, momentID, moment); err != nil {
		return err
	}

	if err := s.searchIndexer.DeleteMoment(ctx, momentID); err != nil && s.logger != nil {
		s.logger.Warn("failed to deindex moment", "moment_id", momentID, "error", err)
	}
	return nil
}
