package api

import (
	"github.com/driftlog/driftlog-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth   *service.AuthService
	Access *service.AccessService
	Trip   *service.TripService
	Moment *service.MomentService
	Canvas *service.CanvasService
	Media  *service.MediaService
	Search *service.SearchService
}
