package store

import (
	"context"
	"sort"

	"github.com/driftlog/driftlog-server/internal/domain"
)

// ListMediaByTrip returns a trip's media items, newest capture first.
func (s *Store) ListMediaByTrip(ctx context.Context, tripID string) ([]*domain.MediaItem, error) {
	media, err := s.Media.ListByIndex(ctx, "trip", tripID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(media, func(i, j int) bool {
		ti, tj := media[i].CreatedAt, media[j].CreatedAt
		if media[i].CapturedAt != nil {
			ti = *media[i].CapturedAt
		}
		if media[j].CapturedAt != nil {
			tj = *media[j].CapturedAt
		}
		return ti.After(tj)
	})
	return media, nil
}

// ListMediaByUploader returns every media item a user has uploaded, across
// all trips. Used for storage usage recalculation.
func (s *Store) ListMediaByUploader(ctx context.Context, uploaderID string) ([]*domain.MediaItem, error) {
	return s.Media.ListByIndex(ctx, "uploader", uploaderID)
}
