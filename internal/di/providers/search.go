package providers

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/bucketlistapp/bucketlist-server/internal/config"
	"github.com/bucketlistapp/bucketlist-server/internal/search"
	"github.com/bucketlistapp/bucketlist-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.ItemIndex
}

// Shutdown implements do.Shutdowner.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve index of public items.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	opts := search.Options{Logger: log}
	if !cfg.Search.UsesMemoryIndex() {
		opts.DataPath = cfg.Search.IndexPath
	}

	index, err := search.NewItemIndex(opts)
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("search index initialized", "documents", docCount, "path", opts.DataPath)

	return &SearchIndexHandle{ItemIndex: index}, nil
}

// SearchServiceHandle stops the indexing worker on shutdown.
type SearchServiceHandle struct {
	*service.SearchService
}

// Shutdown implements do.Shutdowner.
func (h *SearchServiceHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideSearchService provides the search service and wires it to the
// store so item writes reach the index.
func ProvideSearchService(i do.Injector) (*SearchServiceHandle, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	svc := service.NewSearchService(indexHandle.ItemIndex, storeHandle.Store, log)
	storeHandle.SetItemIndexer(svc)

	return &SearchServiceHandle{SearchService: svc}, nil
}

// TriggerSearchReindexIfNeeded fills an empty index in the background.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	handle := do.MustInvoke[*SearchServiceHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	go func() {
		if err := handle.EnsureIndexed(context.Background()); err != nil {
			log.Error("initial search reindex failed", "error", err)
		}
	}()
}
