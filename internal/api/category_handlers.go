package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
)

func (s *Server) registerCategoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "List categories",
		Tags:        []string{"Categories"},
	}, s.handleListCategories)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCategory",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories/{id}",
		Summary:     "Get category",
		Tags:        []string{"Categories"},
	}, s.handleGetCategory)
}

// CategoryListResponse contains all categories.
type CategoryListResponse struct {
	Categories []domain.Category `json:"categories" doc:"Categories ordered by ID"`
}

// CategoryListOutput wraps the category list for Huma.
type CategoryListOutput struct {
	Body CategoryListResponse
}

// CategoryIDInput identifies a category by path.
type CategoryIDInput struct {
	ID int64 `path:"id" minimum:"1" doc:"Category ID"`
}

// CategoryOutput wraps a category for Huma.
type CategoryOutput struct {
	Body *domain.Category
}

func (s *Server) handleListCategories(ctx context.Context, _ *struct{}) (*CategoryListOutput, error) {
	categories, err := s.services.Categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return &CategoryListOutput{Body: CategoryListResponse{Categories: categories}}, nil
}

func (s *Server) handleGetCategory(ctx context.Context, input *CategoryIDInput) (*CategoryOutput, error) {
	category, err := s.services.Categories.GetCategory(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CategoryOutput{Body: category}, nil
}
