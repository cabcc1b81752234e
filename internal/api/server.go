// Package api provides the HTTP API server and handlers for the Driftlog application.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/driftlog/driftlog-server/internal/objectstore"
	"github.com/driftlog/driftlog-server/internal/sse"
	"github.com/driftlog/driftlog-server/internal/store"
)

// Options carries tunables from config into the server.
type Options struct {
	// MaxUploadBytes caps a single media upload body.
	MaxUploadBytes int64

	// Auth endpoints limiter (login, register, refresh).
	AuthPerMinute int
	AuthBurst     int

	// Join and public preview limiter.
	JoinPerMinute int
	JoinBurst     int
}

func (o *Options) applyDefaults() {
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if o.AuthPerMinute <= 0 {
		o.AuthPerMinute = 10
	}
	if o.AuthBurst <= 0 {
		o.AuthBurst = 5
	}
	if o.JoinPerMinute <= 0 {
		o.JoinPerMinute = 30
	}
	if o.JoinBurst <= 0 {
		o.JoinBurst = 10
	}
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      *store.Store
	services   *Services
	objects    objectstore.Store
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger
	sseManager *sse.Manager
	sseHandler *sse.Handler

	maxUploadBytes  int64
	authRateLimiter *RateLimiter
	joinRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, services *Services, objects objectstore.Store, sseManager *sse.Manager, logger *slog.Logger, opts Options) *Server {
	opts.applyDefaults()

	router := chi.NewRouter()

	s := &Server{
		store:           st,
		services:        services,
		objects:         objects,
		router:          router,
		logger:          logger,
		sseManager:      sseManager,
		maxUploadBytes:  opts.MaxUploadBytes,
		authRateLimiter: NewRateLimiter(opts.AuthPerMinute, time.Minute, opts.AuthBurst),
		joinRateLimiter: NewRateLimiter(opts.JoinPerMinute, time.Minute, opts.JoinBurst),
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Driftlog API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	// Real-time stream. The manager filters trip-scoped events per user.
	s.sseHandler = sse.NewHandler(sseManager, logger, requestUserID)
	if services.Access != nil {
		sseManager.SetTripAccessChecker(services.Access.CanView)
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerTripRoutes()
	s.registerShareRoutes()
	s.registerMomentRoutes()
	s.registerCanvasRoutes()
	s.registerMediaRoutes()
	s.registerSearchRoutes()

	// Non-huma routes: streaming endpoints that need the raw ResponseWriter.
	router.Get("/api/v1/sync/stream", s.sseHandler.ServeHTTP)
	router.Get("/api/v1/media/file/*", s.handleServeMediaFile)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(authMiddleware(s.services.Auth))
}

// checkRateLimit rejects the request with a 429 when the limiter denies the key.
func (s *Server) checkRateLimit(limiter *RateLimiter, key, path string) error {
	if limiter == nil || limiter.Allow(key) {
		return nil
	}
	s.logger.Warn("Rate limit exceeded", "ip", key, "path", path)
	return huma.Error429TooManyRequests("Too many requests. Please try again later.")
}

// extractIP picks the client IP from forwarding headers.
func extractIP(xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		for i := 0; i < len(xForwardedFor); i++ {
			if xForwardedFor[i] == ',' {
				return xForwardedFor[:i]
			}
		}
		return xForwardedFor
	}
	return xRealIP
}
