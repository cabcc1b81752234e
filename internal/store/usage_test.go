package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/driftlog/driftlog-server/internal/domain"
	"github.com/driftlog/driftlog-server/internal/id"
)

func TestStorageUsage_Incremental(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	usage, err := s.GetStorageUsage(ctx, "user-a")
	require.NoError(t, err)
	require.Zero(t, usage.BytesUsed)

	usage, err = s.AddStorageUsage(ctx, "user-a", 2048)
	require.NoError(t, err)
	require.EqualValues(t, 2048, usage.BytesUsed)

	usage, err = s.AddStorageUsage(ctx, "user-a", -1024)
	require.NoError(t, err)
	require.EqualValues(t, 1024, usage.BytesUsed)

	// The counter never goes negative, even if accounting drifted.
	usage, err = s.AddStorageUsage(ctx, "user-a", -9999)
	require.NoError(t, err)
	require.Zero(t, usage.BytesUsed)
}

func TestRecalculateStorageUsage(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, bytes := range []int64{1000, 2000, 3000} {
		media := &domain.MediaItem{
			TripID:         "trip-a",
			UploaderID:     "user-a",
			Type:           domain.MediaTypePhoto,
			StorageKey:     id.MustGenerate("obj"),
			OriginalBytes:  bytes,
			ThumbnailBytes: 100,
		}
		media.ID = id.MustGenerate("media")
		media.InitTimestamps()
		require.NoError(t, s.Media.Create(ctx, media.ID, media))
	}

	// Seed a drifted counter, then reconcile.
	_, err := s.AddStorageUsage(ctx, "user-a", 99)
	require.NoError(t, err)

	usage, err := s.RecalculateStorageUsage(ctx, "user-a")
	require.NoError(t, err)
	require.EqualValues(t, 6300, usage.BytesUsed)

	usage, err = s.GetStorageUsage(ctx, "user-a")
	require.NoError(t, err)
	require.EqualValues(t, 6300, usage.BytesUsed)
}
