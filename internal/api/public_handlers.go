package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
	"github.com/bucketlistapp/bucketlist-server/internal/service"
)

func (s *Server) registerPublicRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPublicItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/public/items",
		Summary:     "Public items",
		Description: "Lists items their owners made public. No authentication required.",
		Tags:        []string{"Public"},
	}, s.handleListPublicItems)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchPublicItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/public/search",
		Summary:     "Search public items",
		Description: "Full-text search over public items with facet counts",
		Tags:        []string{"Public"},
	}, s.handleSearchPublicItems)
}

// ListPublicItemsInput contains the public listing filters.
type ListPublicItemsInput struct {
	ItemQuery
	ProfileID string `query:"profile_id" doc:"Only items of this profile"`
}

// SearchPublicInput contains the full-text query.
type SearchPublicInput struct {
	Query      string `query:"q" maxLength:"200" doc:"Search terms; empty matches all public items"`
	CategoryID int64  `query:"category_id" minimum:"0" doc:"Only items of this category"`
	Priority   string `query:"priority" doc:"high, medium or low"`
	Status     string `query:"status" doc:"not_started, in_progress or completed"`
	Limit      int    `query:"limit" minimum:"0" maximum:"100" doc:"Page size (default 20)"`
	Offset     int    `query:"offset" minimum:"0" doc:"Results to skip"`
	SortBy     string `query:"sort_by" enum:"relevance,recent,title" default:"relevance" doc:"Sort key"`
	SortOrder  string `query:"sort_order" enum:"asc,desc" default:"desc" doc:"Sort direction"`
}

// SearchPublicOutput wraps search results for Huma.
type SearchPublicOutput struct {
	Body *service.PublicSearchResponse
}

func (s *Server) handleListPublicItems(ctx context.Context, input *ListPublicItemsInput) (*ItemListOutput, error) {
	opts, err := input.listOptions()
	if err != nil {
		return nil, err
	}
	opts.Filter = withProfile(opts.Filter, strings.TrimSpace(input.ProfileID))

	items, err := s.services.Bucket.ListPublicItems(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &ItemListOutput{Body: newItemList(items)}, nil
}

func (s *Server) handleSearchPublicItems(ctx context.Context, input *SearchPublicInput) (*SearchPublicOutput, error) {
	if s.services.Search == nil {
		return nil, huma.Error503ServiceUnavailable("search is not available")
	}

	req := service.PublicSearchRequest{
		Query:      strings.TrimSpace(input.Query),
		CategoryID: input.CategoryID,
		Limit:      input.Limit,
		Offset:     input.Offset,
		SortBy:     input.SortBy,
		SortOrder:  input.SortOrder,
	}
	if input.Priority != "" {
		req.Priority = domain.Priority(input.Priority)
		if !req.Priority.Valid() {
			return nil, domainerrors.Validationf("priority", "unknown priority %q", input.Priority)
		}
	}
	if input.Status != "" {
		req.Status = domain.Status(input.Status)
		if !req.Status.Valid() {
			return nil, domainerrors.Validationf("status", "unknown status %q", input.Status)
		}
	}

	resp, err := s.services.Search.SearchPublicItems(ctx, req)
	if err != nil {
		return nil, err
	}
	return &SearchPublicOutput{Body: resp}, nil
}
