package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bucketlistapp/bucketlist-server/internal/bucketlist"
	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
	"github.com/bucketlistapp/bucketlist-server/internal/result"
	"github.com/bucketlistapp/bucketlist-server/internal/store"
)

// BucketService composes repository calls with the bucket list rules.
// Validation and rule failures are returned before anything is written.
type BucketService struct {
	repo     store.Repository
	profiles store.ProfileRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewBucketService creates a bucket item service.
func NewBucketService(repo store.Repository, profiles store.ProfileRepository, logger *slog.Logger) *BucketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BucketService{
		repo:     repo,
		profiles: profiles,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ListOptions narrows ListBucketItems beyond the repository filter.
type ListOptions struct {
	Filter store.ItemFilter
	Sort   *domain.SortSpec

	// Due is applied in memory after loading. Empty means no due filter.
	Due       bucketlist.DueFilter
	DueWindow time.Duration
}

// CreateBucketItem validates in and persists it.
func (s *BucketService) CreateBucketItem(ctx context.Context, in *domain.BucketItemInsert) (*domain.BucketItem, error) {
	if err := bucketlist.ValidateInsert(in); err != nil {
		return nil, err
	}

	item, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.logger.Info("bucket item created",
		"item_id", item.ID,
		"profile_id", item.ProfileID,
		"category_id", item.CategoryID,
	)
	return item, nil
}

// UpdateBucketItem applies patch to an item owned by profileID.
// Completed items cannot be edited.
func (s *BucketService) UpdateBucketItem(ctx context.Context, profileID, itemID string, patch *domain.BucketItemUpdate) (*domain.BucketItem, error) {
	if patch == nil {
		patch = &domain.BucketItemUpdate{}
	}
	if err := bucketlist.ValidateUpdate(patch); err != nil {
		return nil, err
	}

	current, err := s.ownedItem(ctx, profileID, itemID)
	if err != nil {
		return nil, err
	}
	if err := bucketlist.CanEditCompletedItem(current); err != nil {
		return nil, err
	}

	if patch.Status != nil && *patch.Status == domain.StatusCompleted && patch.CompletedAt == nil {
		now := s.now()
		patch.CompletedAt = &now
	}

	item, err := s.repo.Update(ctx, itemID, profileID, patch)
	if err != nil {
		return nil, err
	}

	if item.IsCompleted() {
		s.logger.Info("bucket item completed", "item_id", item.ID, "profile_id", profileID)
	} else {
		s.logger.Debug("bucket item updated", "item_id", item.ID, "profile_id", profileID)
	}
	return item, nil
}

// CompleteBucketItem marks an item completed with an optional comment.
func (s *BucketService) CompleteBucketItem(ctx context.Context, profileID, itemID string, comment *string) (*domain.BucketItem, error) {
	status := domain.StatusCompleted
	now := s.now()
	return s.UpdateBucketItem(ctx, profileID, itemID, &domain.BucketItemUpdate{
		Status:            &status,
		CompletedAt:       &now,
		CompletionComment: comment,
	})
}

// DeleteBucketItem removes an item owned by profileID.
func (s *BucketService) DeleteBucketItem(ctx context.Context, profileID, itemID string) error {
	if err := s.repo.Delete(ctx, itemID, profileID); err != nil {
		return err
	}
	s.logger.Info("bucket item deleted", "item_id", itemID, "profile_id", profileID)
	return nil
}

// GetBucketItem returns an item visible to profileID: its own items and
// anyone's public items. Others are reported as missing.
func (s *BucketService) GetBucketItem(ctx context.Context, profileID, itemID string) (*domain.BucketItem, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.ProfileID != profileID && !item.IsPublic {
		return nil, domainerrors.NotFound("bucket_item", itemID)
	}
	return item, nil
}

// ListBucketItems lists the items of profileID.
func (s *BucketService) ListBucketItems(ctx context.Context, profileID string, opts ListOptions) ([]domain.BucketItem, error) {
	items, err := s.repo.FindByProfileID(ctx, profileID, opts.Filter, opts.Sort)
	if err != nil {
		return nil, err
	}
	return s.applyDue(items, opts), nil
}

// ListPublicItems lists items shared by anyone.
func (s *BucketService) ListPublicItems(ctx context.Context, opts ListOptions) ([]domain.BucketItem, error) {
	items, err := s.repo.FindPublic(ctx, opts.Filter, opts.Sort)
	if err != nil {
		return nil, err
	}
	return s.applyDue(items, opts), nil
}

func (s *BucketService) applyDue(items []domain.BucketItem, opts ListOptions) []domain.BucketItem {
	if opts.Due == "" {
		return items
	}
	window := opts.DueWindow
	if window <= 0 {
		window = bucketlist.DefaultDueSoonWindow
	}
	return bucketlist.FilterItemsByDueDate(items, opts.Due, s.now(), window)
}

// GetBucketItemsByCategory loads items and categories concurrently and
// groups the items. Empty categories are omitted.
func (s *BucketService) GetBucketItemsByCategory(ctx context.Context, profileID string) ([]domain.CategoryGroup, error) {
	var (
		g          errgroup.Group
		items      result.Result[[]domain.BucketItem]
		categories result.Result[[]domain.Category]
	)
	g.Go(func() error {
		items = result.Of(s.repo.FindByProfileID(ctx, profileID, store.ItemFilter{}, nil))
		return nil
	})
	g.Go(func() error {
		categories = result.Of(s.repo.FindAllCategories(ctx))
		return nil
	})
	_ = g.Wait()

	joined := result.Join(items, categories)
	if joined.IsFailure() {
		return nil, joined.Err()
	}
	pair := joined.Value()
	return bucketlist.GroupItemsByCategory(pair.First, pair.Second), nil
}

// GetBucketItemsByPriority groups the items of profileID by priority.
func (s *BucketService) GetBucketItemsByPriority(ctx context.Context, profileID string) ([]domain.PriorityGroup, error) {
	items, err := s.repo.FindByProfileID(ctx, profileID, store.ItemFilter{}, nil)
	if err != nil {
		return nil, err
	}
	return bucketlist.GroupItemsByPriority(items), nil
}

// GetBucketItemsByStatus groups the items of profileID by status.
func (s *BucketService) GetBucketItemsByStatus(ctx context.Context, profileID string) ([]domain.StatusGroup, error) {
	items, err := s.repo.FindByProfileID(ctx, profileID, store.ItemFilter{}, nil)
	if err != nil {
		return nil, err
	}
	return bucketlist.GroupItemsByStatus(items), nil
}

// GetDashboardData loads items, categories and the profile concurrently
// and folds them into the dashboard. When any read fails, the first
// failure in that order is returned and nothing is computed.
func (s *BucketService) GetDashboardData(ctx context.Context, profileID string) (*domain.Dashboard, error) {
	var (
		g          errgroup.Group
		items      result.Result[[]domain.BucketItem]
		categories result.Result[[]domain.Category]
		profile    result.Result[*domain.Profile]
	)
	g.Go(func() error {
		items = result.Of(s.repo.FindByProfileID(ctx, profileID, store.ItemFilter{}, nil))
		return nil
	})
	g.Go(func() error {
		categories = result.Of(s.repo.FindAllCategories(ctx))
		return nil
	})
	g.Go(func() error {
		profile = result.Of(s.profiles.GetProfile(ctx, profileID))
		return nil
	})
	_ = g.Wait()

	joined := result.Join3(items, categories, profile)
	if joined.IsFailure() {
		s.logger.Warn("dashboard load failed",
			"profile_id", profileID,
			"error_type", joined.Err().Kind,
			"error", joined.Err(),
		)
		return nil, joined.Err()
	}

	parts := joined.Value()
	dashboard := bucketlist.BuildDashboard(parts.First, parts.Second, parts.Third, s.now())
	return &dashboard, nil
}

// GetUserStats reads the precomputed stats of profileID.
func (s *BucketService) GetUserStats(ctx context.Context, profileID string) (*domain.UserBucketStats, error) {
	return s.repo.GetUserStats(ctx, profileID)
}

func (s *BucketService) ownedItem(ctx context.Context, profileID, itemID string) (*domain.BucketItem, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.ProfileID != profileID {
		return nil, domainerrors.NotFound("bucket_item", itemID)
	}
	return item, nil
}
