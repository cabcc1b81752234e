package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const usagePrefix = "usage:"

// StorageUsage tracks the bytes a user's uploads occupy. Maintained
// incrementally on upload and delete, so it can drift from the sum of the
// media records; RecalculateStorageUsage reconciles it.
type StorageUsage struct {
	UserID    string    `json:"user_id"`
	BytesUsed int64     `json:"bytes_used"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetStorageUsage returns the user's current usage counter. A user with no
// counter yet has zero usage; this is not an error.
func (s *Store) GetStorageUsage(ctx context.Context, userID string) (*StorageUsage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	usage := &StorageUsage{UserID: userID}
	err := s.db.View(func(txn *badger.Txn) error {
		key := buildKey(usagePrefix, userID)
		defer releaseKey(key)

		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, usage)
		})
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// AddStorageUsage atomically adjusts the user's usage counter by delta bytes
// (negative on delete). The counter never goes below zero.
func (s *Store) AddStorageUsage(ctx context.Context, userID string, delta int64) (*StorageUsage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	usage := &StorageUsage{UserID: userID}
	err := s.db.Update(func(txn *badger.Txn) error {
		key := buildKey(usagePrefix, userID)
		defer releaseKey(key)

		item, err := txn.Get(key)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err == nil {
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, usage)
			}); err != nil {
				return err
			}
		}

		usage.BytesUsed += delta
		if usage.BytesUsed < 0 {
			usage.BytesUsed = 0
		}
		usage.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(usage)
		if err != nil {
			return fmt.Errorf("failed to marshal usage: %w", err)
		}
		return txn.Set([]byte(usagePrefix+userID), data)
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// RecalculateStorageUsage rebuilds the counter from the media records
// themselves, reconciling any drift from the incremental accounting.
func (s *Store) RecalculateStorageUsage(ctx context.Context, userID string) (*StorageUsage, error) {
	media, err := s.ListMediaByUploader(ctx, userID)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, item := range media {
		total += item.TotalBytes()
	}

	usage := &StorageUsage{
		UserID:    userID,
		BytesUsed: total,
		UpdatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(usage)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal usage: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(usagePrefix+userID), data)
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("storage usage recalculated", "user_id", userID, "bytes", total, "items", len(media))
	}
	return usage, nil
}
