package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/driftlog/driftlog-server/internal/logger"
)

// sessionCleanupInterval is how often expired refresh sessions are purged.
const sessionCleanupInterval = time.Hour

// SessionCleanupJob periodically deletes expired refresh sessions.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown stops the cleanup loop.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob provides and starts the session cleanup worker.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	ctx, cancel := context.WithCancel(context.Background())

	cleanup := func() {
		n, err := storeHandle.DeleteExpiredSessions(ctx)
		if err != nil {
			log.Warn("Session cleanup failed", "error", err)
			return
		}
		if n > 0 {
			log.Info("Expired sessions removed", "count", n)
		}
	}

	go func() {
		cleanup()

		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	return &SessionCleanupJob{cancel: cancel}, nil
}
