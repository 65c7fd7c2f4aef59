package service

import (
	"context"
	"log/slog"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	"github.com/bucketlistapp/bucketlist-server/internal/store"
)

// CategoryService serves the read-only category list.
type CategoryService struct {
	repo   store.CategoryRepository
	logger *slog.Logger
}

// NewCategoryService creates a category service.
func NewCategoryService(repo store.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{repo: repo, logger: logger}
}

// ListCategories returns all categories ordered by id.
func (s *CategoryService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.FindAllCategories(ctx)
}

// GetCategory returns one category.
func (s *CategoryService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return s.repo.FindCategoryByID(ctx, id)
}
