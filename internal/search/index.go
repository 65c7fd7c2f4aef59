package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	"github.com/bucketlistapp/bucketlist-server/internal/store"
)

// ItemIndex wraps a Bleve index of public bucket items.
//
// All methods are safe for concurrent use. The mutex guards the index
// handle while Rebuild swaps it.
type ItemIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

var _ store.ItemIndexer = (*ItemIndex)(nil)

// Options configures the search index.
type Options struct {
	// DataPath is the directory holding the index. Empty means in-memory.
	DataPath string
	Logger   *slog.Logger
}

// mappingVersion changes whenever buildIndexMapping does. A mismatch on
// startup discards the index so it is rebuilt with the new mapping.
const mappingVersion = "1"

const batchSize = 500

// NewItemIndex opens the index under opts.DataPath, creating it if needed.
// Corrupt or outdated indexes are removed and recreated empty.
func NewItemIndex(opts Options) (*ItemIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &ItemIndex{index: index, logger: logger}, nil
	}

	indexPath := filepath.Join(opts.DataPath, "items.bleve")
	versionPath := filepath.Join(opts.DataPath, "items.version")

	var index bleve.Index
	needsRebuild := false

	_, statErr := os.Stat(indexPath)
	indexExists := statErr == nil

	if indexExists {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("search index has no version file, will rebuild", "new_version", mappingVersion)
			needsRebuild = true
		case string(existing) != mappingVersion:
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if indexExists && !needsRebuild {
		var err error
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
		index = nil
	}

	if index == nil {
		if err := os.MkdirAll(opts.DataPath, 0o750); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &ItemIndex{index: index, path: indexPath, logger: logger}, nil
}

// Close releases the index.
func (s *ItemIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexItem adds or refreshes a public item. Private items are removed.
func (s *ItemIndex) IndexItem(ctx context.Context, item *domain.BucketItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !item.IsPublic {
		return s.index.Delete(item.ID)
	}
	return s.index.Index(item.ID, ItemToDocument(item).ToMap())
}

// DeleteItem removes an item from the index.
func (s *ItemIndex) DeleteItem(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// IndexItems indexes the public items of items in batches.
func (s *ItemIndex) IndexItems(ctx context.Context, items []domain.BucketItem) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexItemsLocked(ctx, items)
}

func (s *ItemIndex) indexItemsLocked(ctx context.Context, items []domain.BucketItem) (int, error) {
	indexed := 0
	for start := 0; start < len(items); start += batchSize {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		end := min(start+batchSize, len(items))

		batch := s.index.NewBatch()
		for i := start; i < end; i++ {
			item := &items[i]
			if !item.IsPublic {
				batch.Delete(item.ID)
				continue
			}
			if err := batch.Index(item.ID, ItemToDocument(item).ToMap()); err != nil {
				return indexed, fmt.Errorf("batch index %s: %w", item.ID, err)
			}
			indexed++
		}
		if err := s.index.Batch(batch); err != nil {
			return indexed, fmt.Errorf("commit batch %d-%d: %w", start, end, err)
		}
	}
	return indexed, nil
}

// DocumentCount returns the number of indexed items.
func (s *ItemIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and fills it from items. It blocks all other
// operations until done.
func (s *ItemIndex) Rebuild(ctx context.Context, items []domain.BucketItem) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return 0, fmt.Errorf("close index: %w", err)
	}

	var (
		index bleve.Index
		err   error
	)
	if s.path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if err := os.RemoveAll(s.path); err != nil {
			return 0, fmt.Errorf("remove index: %w", err)
		}
		index, err = bleve.New(s.path, buildIndexMapping())
	}
	if err != nil {
		return 0, fmt.Errorf("create index: %w", err)
	}
	s.index = index

	n, err := s.indexItemsLocked(ctx, items)
	if err != nil {
		return n, err
	}
	s.logger.Info("rebuilt search index", "path", s.path, "items", n)
	return n, nil
}
