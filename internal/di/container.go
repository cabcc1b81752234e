// Package di provides dependency injection configuration for the Driftlog server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/driftlog/driftlog-server/internal/auth"
	"github.com/driftlog/driftlog-server/internal/config"
	"github.com/driftlog/driftlog-server/internal/di/providers"
	"github.com/driftlog/driftlog-server/internal/logger"
	"github.com/driftlog/driftlog-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Storage layer
	do.Provide(injector, providers.ProvideObjectStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideValidator)

	// Business services
	do.Provide(injector, providers.ProvideAccessService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideTripService)
	do.Provide(injector, providers.ProvideMomentService)
	do.Provide(injector, providers.ProvideCanvasService)
	do.Provide(injector, providers.ProvideMediaService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the server is running.
// This triggers lazy initialization of every provider in dependency order.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.ObjectStoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.AccessService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.TripService](injector)
	_ = do.MustInvoke[*service.MomentService](injector)
	_ = do.MustInvoke[*service.CanvasService](injector)
	_ = do.MustInvoke[*service.MediaService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Rebuild the search index if it is empty but data exists
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
