package domain

import "time"

// Session is a refresh-token session. The access token itself is a stateless
// PASETO; sessions exist so refresh tokens can be revoked server-side.
type Session struct {
	Syncable
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	UserAgent string    `json:"user_agent,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session can no longer be refreshed.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
