// Package store implements persistence for the Driftlog server on top of
// BadgerDB, with generic entity CRUD, secondary indexes, and specialized
// multi-entity transactions for trips and canvas position batches.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/driftlog/driftlog-server/internal/domain"
)

// EventEmitter is the interface for emitting SSE events.
// Store uses this to broadcast changes without depending on SSE details.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// SearchIndexer is the interface for updating the search index.
// Index updates happen after commits so they never block store operations.
type SearchIndexer interface {
	IndexTrip(ctx context.Context, trip *domain.Trip) error
	DeleteTrip(ctx context.Context, tripID string) error
	IndexMoment(ctx context.Context, moment *domain.Moment) error
	DeleteMoment(ctx context.Context, momentID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexTrip is a no-op.
func (NoopSearchIndexer) IndexTrip(context.Context, *domain.Trip) error { return nil }

// DeleteTrip is a no-op.
func (NoopSearchIndexer) DeleteTrip(context.Context, string) error { return nil }

// IndexMoment is a no-op.
func (NoopSearchIndexer) IndexMoment(context.Context, *domain.Moment) error { return nil }

// DeleteMoment is a no-op.
func (NoopSearchIndexer) DeleteMoment(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// SSE event emitter for broadcasting changes.
	eventEmitter EventEmitter

	// Search indexer for keeping search in sync with store changes.
	// Set via SetSearchIndexer after store creation to avoid circular
	// dependencies.
	searchIndexer SearchIndexer

	// Generic entities
	Users       *Entity[domain.User]
	Trips       *Entity[domain.Trip]
	Moments     *Entity[domain.Moment]
	Media       *Entity[domain.MediaItem]
	Permissions *Entity[domain.TripPermission]
	Sessions    *Entity[domain.Session]
}

// New creates a new Store instance with the given database path and event
// emitter. The emitter is required and used to broadcast store changes via SSE.
func New(path string, logger *slog.Logger, emitter EventEmitter) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:            db,
		logger:        logger,
		eventEmitter:  emitter,
		searchIndexer: NoopSearchIndexer{},
	}

	store.initUsers()
	store.initTrips()
	store.initMoments()
	store.initMedia()
	store.initPermissions()
	store.initSessions()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Emitter returns the SSE event emitter wired at construction. Services use
// this to broadcast changes after successful writes.
func (s *Store) Emitter() EventEmitter {
	if s.eventEmitter == nil {
		return NoopEmitter{}
	}
	return s.eventEmitter
}

// SetSearchIndexer sets the search indexer for keeping search in sync.
// This is set after store creation to avoid circular dependencies
// (store needs to exist before the search service can be created).
func (s *Store) SetSearchIndexer(indexer SearchIndexer) {
	s.searchIndexer = indexer
}

// initUsers initializes the Users entity on the store.
// Uses case-insensitive email indexing via normalizeEmail transformation.
func (s *Store) initUsers() {
	s.Users = NewEntity[domain.User](s, "user:").
		WithIndexTransform("email",
			func(u *domain.User) []string {
				return []string{normalizeEmail(u.Email)}
			},
			normalizeEmail, // Transform lookups to be case-insensitive
		)
}

// initTrips initializes the Trips entity on the store.
// Share slug and code are globally unique; either resolves a trip for
// link-based joining. Trips without a share link have no index entries.
func (s *Store) initTrips() {
	s.Trips = NewEntity[domain.Trip](s, "trip:").
		WithIndex("slug", func(t *domain.Trip) []string {
			if t.ShareSlug == "" {
				return nil
			}
			return []string{t.ShareSlug}
		}).
		WithIndexTransform("code",
			func(t *domain.Trip) []string {
				if t.ShareCode == "" {
					return nil
				}
				return []string{normalizeShareCode(t.ShareCode)}
			},
			normalizeShareCode, // Codes are typed by hand; match case-insensitively
		).
		WithScanIndex("owner", func(t *domain.Trip) []string {
			return []string{t.OwnerID}
		})
}

// initMoments initializes the Moments entity on the store.
func (s *Store) initMoments() {
	s.Moments = NewEntity[domain.Moment](s, "moment:").
		WithScanIndex("trip", func(m *domain.Moment) []string {
			return []string{m.TripID}
		})
}

// initMedia initializes the Media entity on the store.
// Indexed by trip (for listing a trip's media) and uploader (for storage
// usage recalculation).
func (s *Store) initMedia() {
	s.Media = NewEntity[domain.MediaItem](s, "media:").
		WithScanIndex("trip", func(m *domain.MediaItem) []string {
			return []string{m.TripID}
		}).
		WithScanIndex("uploader", func(m *domain.MediaItem) []string {
			return []string{m.UploaderID}
		})
}

// initPermissions initializes the Permissions entity on the store.
// The trip_user index enforces the one-row-per-(trip, user) invariant.
func (s *Store) initPermissions() {
	s.Permissions = NewEntity[domain.TripPermission](s, "perm:").
		WithIndex("trip_user", func(p *domain.TripPermission) []string {
			return []string{permissionPairKey(p.TripID, p.UserID)}
		}).
		WithScanIndex("trip", func(p *domain.TripPermission) []string {
			return []string{p.TripID}
		}).
		WithScanIndex("user", func(p *domain.TripPermission) []string {
			return []string{p.UserID}
		})
}

// initSessions initializes the Sessions entity on the store.
func (s *Store) initSessions() {
	s.Sessions = NewEntity[domain.Session](s, "session:").
		WithIndex("refresh", func(sess *domain.Session) []string {
			if sess.TokenHash == "" {
				return nil
			}
			return []string{sess.TokenHash}
		}).
		WithScanIndex("user", func(sess *domain.Session) []string {
			return []string{sess.UserID}
		})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeShareCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// permissionPairKey builds the composite index key for a (trip, user) pair.
// IDs come from the NanoID alphabet, which never contains '|'.
func permissionPairKey(tripID, userID string) string {
	return tripID + "|" + userID
}
