package store

import (
	"context"
	"time"

	"github.com/driftlog/driftlog-server/internal/domain"
)

// GetSessionByRefreshToken looks up a session by the hash of its refresh token.
func (s *Store) GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	return s.Sessions.GetByIndex(ctx, "refresh", tokenHash)
}

// DeleteUserSessions removes every session a user holds, logging them out
// everywhere. Returns the number of sessions removed.
func (s *Store) DeleteUserSessions(ctx context.Context, userID string) (int, error) {
	sessions, err := s.Sessions.ListByIndex(ctx, "user", userID)
	if err != nil {
		return 0, err
	}

	for _, sess := range sessions {
		if err := s.Sessions.Delete(ctx, sess.ID); err != nil {
			return 0, err
		}
	}
	return len(sessions), nil
}

// DeleteExpiredSessions removes sessions past their expiry. Intended to run
// periodically from a background task.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	now := time.Now().UTC()

	var expired []string
	for sess, err := range s.Sessions.List(ctx) {
		if err != nil {
			return 0, err
		}
		if sess.Expired(now) {
			expired = append(expired, sess.ID)
		}
	}

	for _, id := range expired {
		if err := s.Sessions.Delete(ctx, id); err != nil {
			return 0, err
		}
	}

	if len(expired) > 0 && s.logger != nil {
		s.logger.Info("expired sessions cleaned up", "count", len(expired))
	}
	return len(expired), nil
}
