package domain

import "time"

// Syncable carries the identity and lifecycle timestamps shared by every
// entity that flows over the real-time stream. Deletes are soft so clients
// can observe tombstones during delta sync.
type Syncable struct {
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	ID        string     `json:"id"`
}

// Touch bumps UpdatedAt. Call on every mutation.
func (s *Syncable) Touch() {
	s.UpdatedAt = time.Now()
}

// InitTimestamps stamps a freshly created entity.
func (s *Syncable) InitTimestamps() {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
}

// IsDeleted reports whether the entity carries a tombstone.
func (s *Syncable) IsDeleted() bool {
	return s.DeletedAt != nil
}

// MarkDeleted tombstones the entity. UpdatedAt moves too so the deletion
// shows up in delta sync queries.
func (s *Syncable) MarkDeleted() {
	now := time.Now()
	s.DeletedAt = &now
	s.UpdatedAt = now
}
