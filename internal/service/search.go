package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
	"github.com/bucketlistapp/bucketlist-server/internal/search"
	"github.com/bucketlistapp/bucketlist-server/internal/store"
)

// MaxSearchLimit caps the page size of SearchPublicItems.
const MaxSearchLimit = 100

const indexQueueSize = 256

// SearchService keeps the public item index in sync and answers searches.
//
// Index writes are queued and applied by a single background worker, so
// item writes never wait on Bleve. Failures are logged and dropped; Reindex
// repairs any drift.
type SearchService struct {
	index  *search.ItemIndex
	items  store.ItemRepository
	logger *slog.Logger

	jobs      chan indexJob
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

type indexJob struct {
	item    *domain.BucketItem
	deleted string
	flushed chan struct{}
}

var _ store.ItemIndexer = (*SearchService)(nil)

// NewSearchService starts the index worker. Call Close to stop it.
func NewSearchService(index *search.ItemIndex, items store.ItemRepository, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SearchService{
		index:  index,
		items:  items,
		logger: logger,
		jobs:   make(chan indexJob, indexQueueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *SearchService) run() {
	defer close(s.done)
	for job := range s.jobs {
		switch {
		case job.flushed != nil:
			close(job.flushed)
		case job.item != nil:
			if err := s.index.IndexItem(context.Background(), job.item); err != nil {
				s.logger.Warn("failed to index item", "item_id", job.item.ID, "error", err)
			}
		default:
			if err := s.index.DeleteItem(context.Background(), job.deleted); err != nil {
				s.logger.Warn("failed to remove item from index", "item_id", job.deleted, "error", err)
			}
		}
	}
}

func (s *SearchService) enqueue(ctx context.Context, job indexJob) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.New("search service closed")
	}
	select {
	case s.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IndexItem queues item for indexing. The item is copied.
func (s *SearchService) IndexItem(ctx context.Context, item *domain.BucketItem) error {
	cp := *item
	return s.enqueue(ctx, indexJob{item: &cp})
}

// DeleteItem queues the removal of an item.
func (s *SearchService) DeleteItem(ctx context.Context, id string) error {
	return s.enqueue(ctx, indexJob{deleted: id})
}

// Flush waits until every write queued before the call has been applied.
func (s *SearchService) Flush(ctx context.Context) error {
	flushed := make(chan struct{})
	if err := s.enqueue(ctx, indexJob{flushed: flushed}); err != nil {
		return err
	}
	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the worker. It does not close the index.
func (s *SearchService) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.jobs)
		s.mu.Unlock()
		<-s.done
	})
}

// Reindex rebuilds the index from the public items in the repository.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	items, err := s.items.FindPublic(ctx, store.ItemFilter{}, nil)
	if err != nil {
		return 0, err
	}
	n, err := s.index.Rebuild(ctx, items)
	if err != nil {
		return n, domainerrors.Application("rebuild search index", err)
	}
	return n, nil
}

// EnsureIndexed rebuilds the index when it is empty but public items exist,
// which is the state after a mapping change.
func (s *SearchService) EnsureIndexed(ctx context.Context) error {
	count, err := s.index.DocumentCount()
	if err != nil {
		return fmt.Errorf("count indexed items: %w", err)
	}
	if count > 0 {
		return nil
	}
	n, err := s.Reindex(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("search index populated", "items", n)
	}
	return nil
}

// DocumentCount reports the number of indexed items.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// PublicSearchRequest is a full-text query over public items.
type PublicSearchRequest struct {
	Query      string
	CategoryID int64
	Priority   domain.Priority
	Status     domain.Status
	Limit      int
	Offset     int
	SortBy     string
	SortOrder  string
}

// PublicSearchResponse carries the matching items in rank order.
type PublicSearchResponse struct {
	Query  string              `json:"query"`
	Total  uint64              `json:"total"`
	TookMs int64               `json:"took_ms"`
	Items  []domain.BucketItem `json:"items"`
	Facets search.SearchFacets `json:"facets"`
}

// SearchPublicItems runs req against the index and loads the hits.
// Hits that are no longer public or no longer exist are skipped.
func (s *SearchService) SearchPublicItems(ctx context.Context, req PublicSearchRequest) (*PublicSearchResponse, error) {
	params := search.DefaultSearchParams()
	params.Query = req.Query
	params.CategoryID = req.CategoryID
	params.Priority = string(req.Priority)
	params.Status = string(req.Status)
	params.Offset = max(req.Offset, 0)
	if req.Limit > 0 {
		params.Limit = min(req.Limit, MaxSearchLimit)
	}
	if req.SortBy != "" {
		params.SortBy = req.SortBy
	}
	if req.SortOrder != "" {
		params.SortOrder = req.SortOrder
	}

	res, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, domainerrors.Application("search public items", err)
	}

	items := make([]domain.BucketItem, 0, len(res.Hits))
	for _, hit := range res.Hits {
		item, err := s.items.FindByID(ctx, hit.ID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				s.logger.Debug("stale search hit", "item_id", hit.ID)
				continue
			}
			return nil, err
		}
		if !item.IsPublic {
			continue
		}
		items = append(items, *item)
	}

	return &PublicSearchResponse{
		Query:  res.Query,
		Total:  res.Total,
		TookMs: res.TookMs,
		Items:  items,
		Facets: res.Facets,
	}, nil
}
