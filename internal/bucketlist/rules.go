package bucketlist

import (
	"cmp"
	"slices"
	"time"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
)

// RuleCompletedItemImmutable names the terminal-status rule.
const RuleCompletedItemImmutable = "completed_item_immutable"

// Dashboard windows.
const (
	RecentCompletedLimit = 5
	UpcomingDays         = 30
	UpcomingLimit        = 5
)

// CanEditCompletedItem rejects edits to completed items with a BusinessRuleError.
func CanEditCompletedItem(item *domain.BucketItem) error {
	if !item.IsCompleted() {
		return nil
	}
	return domainerrors.BusinessRule(
		RuleCompletedItemImmutable,
		"完了済みの項目は編集できません",
		map[string]any{"item_id": item.ID, "status": string(item.Status)},
	)
}

// GetRecentlyCompletedItems returns up to limit items with a completion time,
// newest first. A non-positive limit means RecentCompletedLimit.
func GetRecentlyCompletedItems(items []domain.BucketItem, limit int) []domain.BucketItem {
	if limit <= 0 {
		limit = RecentCompletedLimit
	}

	completed := make([]domain.BucketItem, 0, len(items))
	for _, item := range items {
		if item.CompletedAt != nil {
			completed = append(completed, item)
		}
	}
	slices.SortStableFunc(completed, func(a, b domain.BucketItem) int {
		return b.CompletedAt.Compare(*a.CompletedAt)
	})
	return completed[:min(limit, len(completed))]
}

// GetUpcomingItems returns up to limit unfinished items due between today and
// today+days, soonest first. Non-positive arguments fall back to
// UpcomingDays and UpcomingLimit.
func GetUpcomingItems(items []domain.BucketItem, now time.Time, days, limit int) []domain.BucketItem {
	if days <= 0 {
		days = UpcomingDays
	}
	if limit <= 0 {
		limit = UpcomingLimit
	}
	today := domain.DateOf(now)
	horizon := today.AddDate(0, 0, days)

	upcoming := make([]domain.BucketItem, 0, len(items))
	for _, item := range items {
		if item.DueDate != nil && !item.IsCompleted() && withinDays(*item.DueDate, today, horizon) {
			upcoming = append(upcoming, item)
		}
	}
	slices.SortStableFunc(upcoming, func(a, b domain.BucketItem) int {
		return cmp.Compare(a.DueDate.Unix(), b.DueDate.Unix())
	})
	return upcoming[:min(limit, len(upcoming))]
}

// BuildDashboard folds a profile's items and the category list into the
// dashboard view. profile may be nil when the identity is unknown.
func BuildDashboard(items []domain.BucketItem, categories []domain.Category, profile *domain.Profile, now time.Time) domain.Dashboard {
	stats := CalculateUserStats(items)
	if profile != nil {
		id, name := profile.ID, profile.Name()
		stats.ProfileID = &id
		stats.DisplayName = &name
	}

	return domain.Dashboard{
		Items:                items,
		Categories:           categories,
		Stats:                stats,
		CategoryStats:        CalculateCategoryStats(items, categories),
		RecentCompletedItems: GetRecentlyCompletedItems(items, RecentCompletedLimit),
		UpcomingItems:        GetUpcomingItems(items, now, UpcomingDays, UpcomingLimit),
	}
}
