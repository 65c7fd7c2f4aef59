package domain

import "time"

// Priority ranks how much the owner cares about an item.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists priorities in display order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Rank returns the sort weight of p: high=3, medium=2, low=1, unknown=0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Status is the progress state of an item.
// Transitions run not_started -> in_progress -> completed; completed is terminal.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists statuses in display order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusCompleted}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusNotStarted || s == StatusInProgress || s == StatusCompleted
}

// DueType records how the owner expressed the due date in the form.
type DueType string

const (
	DueTypeSpecificDate DueType = "specific_date"
	DueTypeThisYear     DueType = "this_year"
	DueTypeNextYear     DueType = "next_year"
	DueTypeUnspecified  DueType = "unspecified"
)

// Valid reports whether d is a known due type. The empty value is accepted.
func (d DueType) Valid() bool {
	switch d {
	case "", DueTypeSpecificDate, DueTypeThisYear, DueTypeNextYear, DueTypeUnspecified:
		return true
	}
	return false
}

// BucketItem is a single life goal owned by a profile.
type BucketItem struct {
	ID                string     `json:"id" db:"id"`
	ProfileID         string     `json:"profile_id" db:"profile_id"`
	Title             string     `json:"title" db:"title"`
	Description       *string    `json:"description,omitempty" db:"description"`
	CategoryID        int64      `json:"category_id" db:"category_id"`
	Priority          Priority   `json:"priority" db:"priority"`
	Status            Status     `json:"status" db:"status"`
	IsPublic          bool       `json:"is_public" db:"is_public"`
	DueDate           *time.Time `json:"due_date,omitempty" db:"-"`
	DueType           DueType    `json:"due_type,omitempty" db:"due_type"`
	CompletedAt       *time.Time `json:"completed_at,omitempty" db:"-"`
	CompletionComment *string    `json:"completion_comment,omitempty" db:"completion_comment"`
	CreatedAt         time.Time  `json:"created_at" db:"-"`
	UpdatedAt         time.Time  `json:"updated_at" db:"-"`
}

// IsCompleted reports whether the item has reached the terminal status.
func (b *BucketItem) IsCompleted() bool {
	return b.Status == StatusCompleted
}

// BucketItemWithCategory is an item joined with its category.
type BucketItemWithCategory struct {
	BucketItem
	Category *Category `json:"category,omitempty"`
}

// BucketItemInsert is the payload for creating an item. DueDate is the raw
// form value and is parsed during validation.
type BucketItemInsert struct {
	ProfileID         string   `json:"profile_id"`
	Title             string   `json:"title"`
	Description       *string  `json:"description,omitempty"`
	CategoryID        int64    `json:"category_id"`
	Priority          Priority `json:"priority"`
	Status            Status   `json:"status,omitempty"`
	IsPublic          bool     `json:"is_public"`
	DueDate           *string  `json:"due_date,omitempty"`
	DueType           DueType  `json:"due_type,omitempty"`
	CompletionComment *string  `json:"completion_comment,omitempty"`
}

// BucketItemUpdate is a partial update. Nil fields are left untouched.
type BucketItemUpdate struct {
	Title             *string    `json:"title,omitempty"`
	Description       *string    `json:"description,omitempty"`
	CategoryID        *int64     `json:"category_id,omitempty"`
	Priority          *Priority  `json:"priority,omitempty"`
	Status            *Status    `json:"status,omitempty"`
	IsPublic          *bool      `json:"is_public,omitempty"`
	DueDate           *string    `json:"due_date,omitempty"`
	DueType           *DueType   `json:"due_type,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CompletionComment *string    `json:"completion_comment,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u *BucketItemUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.CategoryID == nil &&
		u.Priority == nil && u.Status == nil && u.IsPublic == nil &&
		u.DueDate == nil && u.DueType == nil && u.CompletedAt == nil &&
		u.CompletionComment == nil
}
