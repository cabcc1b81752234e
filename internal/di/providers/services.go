package providers

import (
	"github.com/samber/do/v2"

	"github.com/driftlog/driftlog-server/internal/auth"
	"github.com/driftlog/driftlog-server/internal/logger"
	"github.com/driftlog/driftlog-server/internal/service"
	"github.com/driftlog/driftlog-server/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideAccessService provides the trip permission service.
func ProvideAccessService(i do.Injector) (*service.AccessService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return service.NewAccessService(storeHandle.Store, log.Logger), nil
}

// ProvideAuthService provides the account and session service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	validate := do.MustInvoke[*validation.Validator](i)

	return service.NewAuthService(storeHandle.Store, tokens, validate, log.Logger), nil
}

// ProvideTripService provides the trip service.
func ProvideTripService(i do.Injector) (*service.TripService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	access := do.MustInvoke[*service.AccessService](i)
	objects := do.MustInvoke[*ObjectStoreHandle](i)
	validate := do.MustInvoke[*validation.Validator](i)

	return service.NewTripService(storeHandle.Store, access, objects.Store, validate, log.Logger), nil
}

// ProvideMomentService provides the moment service.
func ProvideMomentService(i do.Injector) (*service.MomentService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	access := do.MustInvoke[*service.AccessService](i)
	validate := do.MustInvoke[*validation.Validator](i)

	return service.NewMomentService(storeHandle.Store, access, validate, log.Logger), nil
}

// ProvideCanvasService provides the grid layout service.
func ProvideCanvasService(i do.Injector) (*service.CanvasService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	access := do.MustInvoke[*service.AccessService](i)

	return service.NewCanvasService(storeHandle.Store, access, log.Logger), nil
}

// ProvideMediaService provides the media service.
func ProvideMediaService(i do.Injector) (*service.MediaService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	access := do.MustInvoke[*service.AccessService](i)
	objects := do.MustInvoke[*ObjectStoreHandle](i)

	return service.NewMediaService(storeHandle.Store, access, objects.Store, log.Logger), nil
}
