package providers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/driftlog/driftlog-server/internal/config"
	"github.com/driftlog/driftlog-server/internal/logger"
	"github.com/driftlog/driftlog-server/internal/sse"
	"github.com/driftlog/driftlog-server/internal/store"
)

// SSEManagerHandle wraps the SSE manager with its broadcast loop lifecycle.
type SSEManagerHandle struct {
	Manager *sse.Manager
	cancel  context.CancelFunc
}

// Shutdown stops the broadcast loop and drains connected clients.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the SSE manager and starts its broadcast loop.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	return &SSEManagerHandle{Manager: manager, cancel: cancel}, nil
}

// StoreHandle wraps the store for lifecycle management.
type StoreHandle struct {
	*store.Store
}

// Shutdown closes the underlying Badger database.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the Badger-backed store. Trip-scoped mutations are
// emitted to the SSE manager.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "db")
	st, err := store.New(dbPath, log.Logger, sseHandle.Manager)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", dbPath, err)
	}

	log.Info("Store opened", "path", dbPath)
	return &StoreHandle{Store: st}, nil
}
