package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
)

func (s *Server) registerItemRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/items",
		Summary:     "List items",
		Description: "Lists the caller's bucket items with optional filters and sorting",
		Tags:        []string{"Items"},
		Security:    authenticated,
	}, s.handleListItems)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createItem",
		Method:        http.MethodPost,
		Path:          "/api/v1/items",
		Summary:       "Create item",
		Description:   "Adds a bucket item. A due_type of this_year or next_year sets the due date to December 31 when no due_date is given.",
		Tags:          []string{"Items"},
		Security:      authenticated,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGroupedItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/items/grouped",
		Summary:     "Grouped items",
		Description: "Returns the caller's items grouped by category, priority or status. Empty groups are omitted.",
		Tags:        []string{"Items"},
		Security:    authenticated,
	}, s.handleGroupedItems)

	huma.Register(s.api, huma.Operation{
		OperationID: "getItem",
		Method:      http.MethodGet,
		Path:        "/api/v1/items/{id}",
		Summary:     "Get item",
		Description: "Returns one of the caller's items or a public item",
		Tags:        []string{"Items"},
		Security:    authenticated,
	}, s.handleGetItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateItem",
		Method:      http.MethodPatch,
		Path:        "/api/v1/items/{id}",
		Summary:     "Update item",
		Description: "Applies a partial update. Completed items cannot be changed.",
		Tags:        []string{"Items"},
		Security:    authenticated,
	}, s.handleUpdateItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "completeItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/items/{id}/complete",
		Summary:     "Complete item",
		Description: "Marks an item completed with an optional comment",
		Tags:        []string{"Items"},
		Security:    authenticated,
	}, s.handleCompleteItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteItem",
		Method:      http.MethodDelete,
		Path:        "/api/v1/items/{id}",
		Summary:     "Delete item",
		Description: "Deletes one of the caller's items",
		Tags:        []string{"Items"},
		Security:    authenticated,
	}, s.handleDeleteItem)
}

// === DTOs ===

// ListItemsInput contains the list filters.
type ListItemsInput struct {
	ItemQuery
	IsPublic string `query:"is_public" doc:"true or false"`
}

// ItemListResponse contains a list of items.
type ItemListResponse struct {
	Items []domain.BucketItem `json:"items" doc:"Matching items"`
	Total int                 `json:"total" doc:"Number of items returned"`
}

// ItemListOutput wraps the item list for Huma.
type ItemListOutput struct {
	Body ItemListResponse
}

// CreateItemRequest is the request body for creating an item.
type CreateItemRequest struct {
	Title       string          `json:"title" doc:"Title, at most 200 characters"`
	Description *string         `json:"description,omitempty" doc:"Free-form notes, at most 1000 characters"`
	CategoryID  int64           `json:"category_id" doc:"Category ID"`
	Priority    domain.Priority `json:"priority" doc:"high, medium or low"`
	Status      domain.Status   `json:"status,omitempty" doc:"Initial status (default not_started)"`
	IsPublic    bool            `json:"is_public,omitempty" doc:"Show the item in public listings"`
	DueDate     *string         `json:"due_date,omitempty" doc:"Due date as YYYY-MM-DD"`
	DueType     domain.DueType  `json:"due_type,omitempty" doc:"specific_date, this_year, next_year or unspecified"`
}

// CreateItemInput wraps the create request for Huma.
type CreateItemInput struct {
	Body CreateItemRequest
}

// ItemIDInput identifies an item by path.
type ItemIDInput struct {
	ID string `path:"id" doc:"Item ID"`
}

// UpdateItemRequest is a partial update. Omitted fields are unchanged.
type UpdateItemRequest struct {
	Title             *string          `json:"title,omitempty" doc:"New title"`
	Description       *string          `json:"description,omitempty" doc:"New description"`
	CategoryID        *int64           `json:"category_id,omitempty" doc:"New category ID"`
	Priority          *domain.Priority `json:"priority,omitempty" doc:"New priority"`
	Status            *domain.Status   `json:"status,omitempty" doc:"New status"`
	IsPublic          *bool            `json:"is_public,omitempty" doc:"New visibility"`
	DueDate           *string          `json:"due_date,omitempty" doc:"New due date; empty string clears it"`
	DueType           *domain.DueType  `json:"due_type,omitempty" doc:"New due type"`
	CompletionComment *string          `json:"completion_comment,omitempty" doc:"Comment stored with the completion"`
}

// UpdateItemInput wraps the update request for Huma.
type UpdateItemInput struct {
	ID   string `path:"id" doc:"Item ID"`
	Body UpdateItemRequest
}

// CompleteItemRequest is the optional body of the complete endpoint.
type CompleteItemRequest struct {
	Comment *string `json:"comment,omitempty" maxLength:"1000" doc:"How it went"`
}

// CompleteItemInput wraps the complete request for Huma.
type CompleteItemInput struct {
	ID   string               `path:"id" doc:"Item ID"`
	Body *CompleteItemRequest `required:"false"`
}

// ItemOutput wraps a single item for Huma.
type ItemOutput struct {
	Body *domain.BucketItem
}

// GroupedItemsInput selects the grouping.
type GroupedItemsInput struct {
	By string `query:"by" default:"category" enum:"category,priority,status" doc:"Grouping key"`
}

// GroupedItemsResponse holds one of the grouping results.
type GroupedItemsResponse struct {
	By         string                 `json:"by" doc:"Grouping key"`
	Categories []domain.CategoryGroup `json:"categories,omitempty" doc:"Groups when by=category"`
	Priorities []domain.PriorityGroup `json:"priorities,omitempty" doc:"Groups when by=priority"`
	Statuses   []domain.StatusGroup   `json:"statuses,omitempty" doc:"Groups when by=status"`
}

// GroupedItemsOutput wraps the grouping for Huma.
type GroupedItemsOutput struct {
	Body GroupedItemsResponse
}

// === Handlers ===

func (s *Server) handleListItems(ctx context.Context, input *ListItemsInput) (*ItemListOutput, error) {
	profileID, err := GetProfileID(ctx)
	if err != nil {
		return nil, err
	}

	opts, err := input.listOptions()
	if err != nil {
		return nil, err
	}
	if opts.Filter.IsPublic, err = parseOptionalBool("is_public", input.IsPublic); err != nil {
		return nil, err
	}

	items, err := s.services.Bucket.ListBucketItems(ctx, profileID, opts)
	if err != nil {
		return nil, err
	}
	return &ItemListOutput{Body: newItemList(items)}, nil
}

func (s *Server) handleCreateItem(ctx context.Context, input *CreateItemInput) (*ItemOutput, error) {
	profileID, err := GetProfileID(ctx)
	if err != nil {
		return nil, err
	}

	body := input.Body
	in := &domain.BucketItemInsert{
		ProfileID:   profileID,
		Title:       body.Title,
		Description: body.Description,
		CategoryID:  body.CategoryID,
		Priority:    body.Priority,
		Status:      body.Status,
		IsPublic:    body.IsPublic,
		DueDate:     body.DueDate,
		DueType:     body.DueType,
	}
	if in.DueDate == nil {
		in.DueDate = s.resolveDueType(body.DueType)
	} else if in.DueType == "" {
		in.DueType = domain.DueTypeSpecificDate
	}

	item, err := s.services.Bucket.CreateBucketItem(ctx, in)
	if err != nil {
		return nil, err
	}
	return &ItemOutput{Body: item}, nil
}

func (s *Server) handleGetItem(ctx context.Context, input *ItemIDInput) (*ItemOutput, error) {
	profileID, err := GetProfileID(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Bucket.GetBucketItem(ctx, profileID, input.ID)
	if err != nil {
		return nil, err
	}
	return &ItemOutput{Body: item}, nil
}

func (s *Server) handleUpdateItem(ctx context.Context, input *UpdateItemInput) (*ItemOutput, error) {
	profileID, err := GetProfileID(ctx)
	if err != nil {
		return nil, err
	}

	body := input.Body
	patch := &domain.BucketItemUpdate{
		Title:             body.Title,
		Description:       body.Description,
		CategoryID:        body.CategoryID,
		Priority:          body.Priority,
		Status:            body.Status,
		IsPublic:          body.IsPublic,
		DueDate:           body.DueDate,
		DueType:           body.DueType,
		CompletionComment: body.CompletionComment,
	}
	if patch.DueDate == nil && patch.DueType != nil {
		if resolved := s.resolveDueType(*patch.DueType); resolved != nil {
			patch.DueDate = resolved
		} else if *patch.DueType == domain.DueTypeUnspecified {
			cleared := ""
			patch.DueDate = &cleared
		}
	}
	if patch.IsEmpty() {
		return nil, domainerrors.Validation("body", "no fields to update")
	}

	item, err := s.services.Bucket.UpdateBucketItem(ctx, profileID, input.ID, patch)
	if err != nil {
		return nil, err
	}
	return &ItemOutput{Body: item}, nil
}

func (s *Server) handleCompleteItem(ctx context.Context, input *CompleteItemInput) (*ItemOutput, error) {
	profileID, err := GetProfileID(ctx)
	if err != nil {
		return nil, err
	}

	var comment *string
	if input.Body != nil {
		comment = input.Body.Comment
	}

	item, err := s.services.Bucket.CompleteBucketItem(ctx, profileID, input.ID, comment)
	if err != nil {
		return nil, err
	}
	return &ItemOutput{Body: item}, nil
}

func (s *Server) handleDeleteItem(ctx context.Context, input *ItemIDInput) (*MessageOutput, error) {
	profileID, err := GetProfileID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Bucket.DeleteBucketItem(ctx, profileID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "item deleted"}}, nil
}

func (s *Server) handleGroupedItems(ctx context.Context, input *GroupedItemsInput) (*GroupedItemsOutput, error) {
	profileID, err := GetProfileID(ctx)
	if err != nil {
		return nil, err
	}

	resp := GroupedItemsResponse{By: input.By}
	switch input.By {
	case "priority":
		resp.Priorities, err = s.services.Bucket.GetBucketItemsByPriority(ctx, profileID)
	case "status":
		resp.Statuses, err = s.services.Bucket.GetBucketItemsByStatus(ctx, profileID)
	default:
		resp.By = "category"
		resp.Categories, err = s.services.Bucket.GetBucketItemsByCategory(ctx, profileID)
	}
	if err != nil {
		return nil, err
	}
	return &GroupedItemsOutput{Body: resp}, nil
}

// resolveDueType turns this_year and next_year into a due date form value.
func (s *Server) resolveDueType(dueType domain.DueType) *string {
	due := domain.ResolveDueDate(dueType, s.now())
	if due == nil {
		return nil
	}
	formatted := domain.FormatDueDate(*due)
	return &formatted
}

func newItemList(items []domain.BucketItem) ItemListResponse {
	if items == nil {
		items = []domain.BucketItem{}
	}
	return ItemListResponse{Items: items, Total: len(items)}
}
