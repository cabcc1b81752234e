package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/driftlog/driftlog-server/internal/api"
	"github.com/driftlog/driftlog-server/internal/config"
	"github.com/driftlog/driftlog-server/internal/logger"
	"github.com/driftlog/driftlog-server/internal/service"
)

// HTTPServerHandle wraps the HTTP server for graceful shutdown.
type HTTPServerHandle struct {
	Server *http.Server
	API    *api.Server
}

// Shutdown gracefully stops the HTTP server, waiting for in-flight requests.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer assembles the API server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	objects := do.MustInvoke[*ObjectStoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	services := &api.Services{
		Auth:   do.MustInvoke[*service.AuthService](i),
		Access: do.MustInvoke[*service.AccessService](i),
		Trip:   do.MustInvoke[*service.TripService](i),
		Moment: do.MustInvoke[*service.MomentService](i),
		Canvas: do.MustInvoke[*service.CanvasService](i),
		Media:  do.MustInvoke[*service.MediaService](i),
		Search: do.MustInvoke[*service.SearchService](i),
	}

	apiServer := api.NewServer(storeHandle.Store, services, objects.Store, sseHandle.Manager, log.Logger, api.Options{
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
		AuthPerMinute:  cfg.RateLimit.AuthPerMinute,
		AuthBurst:      cfg.RateLimit.AuthBurst,
		JoinPerMinute:  cfg.RateLimit.JoinPerMinute,
		JoinBurst:      cfg.RateLimit.JoinBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, API: apiServer}, nil
}
