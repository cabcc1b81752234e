package providers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/driftlog/driftlog-server/internal/config"
	"github.com/driftlog/driftlog-server/internal/logger"
	"github.com/driftlog/driftlog-server/internal/search"
	"github.com/driftlog/driftlog-server/internal/service"
)

// SearchIndexHandle wraps the Bleve index for lifecycle management.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown closes the index.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	indexPath := filepath.Join(cfg.Data.BasePath, "search")
	index, err := search.NewSearchIndex(search.Options{
		DataPath: indexPath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open search index at %s: %w", indexPath, err)
	}

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideSearchService provides the search service and hooks it into the
// store so writes are indexed as they happen.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	svc := service.NewSearchService(storeHandle.Store, indexHandle.SearchIndex, log.Logger)
	storeHandle.SetSearchIndexer(svc)

	return svc, nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when it
// is empty but the store already has data, e.g. after the index directory was
// deleted or the mapping version changed.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	svc := do.MustInvoke[*service.SearchService](i)

	count, err := indexHandle.DocumentCount()
	if err != nil {
		log.Warn("Failed to check search index size", "error", err)
		return
	}
	if count > 0 {
		return
	}

	ctx := context.Background()
	hasData := false
	for _, err := range storeHandle.Trips.List(ctx) {
		if err == nil {
			hasData = true
		}
		break
	}
	if !hasData {
		return
	}

	log.Info("Search index is empty but data exists, triggering reindex")
	go func() {
		if err := svc.ReindexAll(context.Background()); err != nil {
			log.Error("Search reindex failed", "error", err)
		}
	}()
}
