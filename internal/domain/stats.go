package domain

// UserBucketStats summarizes a profile's progress.
// CompletedItems + InProgressItems + NotStartedItems == TotalItems.
type UserBucketStats struct {
	ProfileID       *string `json:"profile_id" db:"profile_id"`
	DisplayName     *string `json:"display_name" db:"display_name"`
	TotalItems      int     `json:"total_items" db:"total_items"`
	CompletedItems  int     `json:"completed_items" db:"completed_items"`
	InProgressItems int     `json:"in_progress_items" db:"in_progress_items"`
	NotStartedItems int     `json:"not_started_items" db:"not_started_items"`
	CompletionRate  int     `json:"completion_rate" db:"-"`
}

// CategoryStats is the per-category completion summary.
type CategoryStats struct {
	Category  Category `json:"category"`
	Total     int      `json:"total"`
	Completed int      `json:"completed"`
	Rate      int      `json:"rate"`
}

// CategoryGroup holds the items of one category.
type CategoryGroup struct {
	Category Category     `json:"category"`
	Items    []BucketItem `json:"items"`
}

// PriorityGroup holds the items of one priority.
type PriorityGroup struct {
	Priority Priority     `json:"priority"`
	Items    []BucketItem `json:"items"`
}

// StatusGroup holds the items of one status.
type StatusGroup struct {
	Status Status       `json:"status"`
	Items  []BucketItem `json:"items"`
}

// Dashboard is the aggregate view shown on a profile's home screen.
type Dashboard struct {
	Items                []BucketItem    `json:"items"`
	Categories           []Category      `json:"categories"`
	Stats                UserBucketStats `json:"stats"`
	CategoryStats        []CategoryStats `json:"category_stats"`
	RecentCompletedItems []BucketItem    `json:"recent_completed_items"`
	UpcomingItems        []BucketItem    `json:"upcoming_items"`
}
