package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/driftlog/driftlog-server/internal/config"
	"github.com/driftlog/driftlog-server/internal/logger"
	"github.com/driftlog/driftlog-server/internal/objectstore"
)

// ObjectStoreHandle wraps the configured object store backend.
type ObjectStoreHandle struct {
	Store objectstore.Store
}

// ProvideObjectStore provides the object store selected by config:
// local files under the data directory, or a MinIO/S3 bucket.
func ProvideObjectStore(i do.Injector) (*ObjectStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Objects.Backend {
	case "minio":
		m, err := objectstore.NewMinio(objectstore.MinioConfig{
			Endpoint:  cfg.Objects.Endpoint,
			AccessKey: cfg.Objects.AccessKey,
			SecretKey: cfg.Objects.SecretKey,
			Bucket:    cfg.Objects.Bucket,
			Region:    cfg.Objects.Region,
			UseSSL:    cfg.Objects.UseSSL,
		}, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create minio store: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := m.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure bucket: %w", err)
		}

		log.Info("Object store ready", "backend", "minio", "endpoint", cfg.Objects.Endpoint, "bucket", cfg.Objects.Bucket)
		return &ObjectStoreHandle{Store: m}, nil

	default:
		local, err := objectstore.NewLocal(cfg.Objects.LocalPath, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create local object store: %w", err)
		}

		log.Info("Object store ready", "backend", "local", "path", cfg.Objects.LocalPath)
		return &ObjectStoreHandle{Store: local}, nil
	}
}
