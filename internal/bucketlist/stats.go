// Package bucketlist holds the pure business rules of the bucket list:
// statistics, grouping, filtering, sorting and payload validation.
// Nothing in this package performs I/O; callers pass already loaded items.
package bucketlist

import (
	"math"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
)

// CalculateAchievementRate returns the rounded percentage of completed items.
// An empty list yields 0.
func CalculateAchievementRate(items []domain.BucketItem) int {
	if len(items) == 0 {
		return 0
	}
	completed := 0
	for i := range items {
		if items[i].Status == domain.StatusCompleted {
			completed++
		}
	}
	return percent(completed, len(items))
}

// CalculateCategoryStats summarizes items per category. Categories without
// items are omitted, as are items whose category is unknown.
func CalculateCategoryStats(items []domain.BucketItem, categories []domain.Category) []domain.CategoryStats {
	stats := make([]domain.CategoryStats, 0, len(categories))
	for _, category := range categories {
		total, completed := 0, 0
		for i := range items {
			if items[i].CategoryID != category.ID {
				continue
			}
			total++
			if items[i].Status == domain.StatusCompleted {
				completed++
			}
		}
		if total == 0 {
			continue
		}
		stats = append(stats, domain.CategoryStats{
			Category:  category,
			Total:     total,
			Completed: completed,
			Rate:      percent(completed, total),
		})
	}
	return stats
}

// CalculateUserStats counts items by status. ProfileID and DisplayName are
// left nil; callers with an identity fill them in.
func CalculateUserStats(items []domain.BucketItem) domain.UserBucketStats {
	var stats domain.UserBucketStats
	stats.TotalItems = len(items)
	for i := range items {
		switch items[i].Status {
		case domain.StatusCompleted:
			stats.CompletedItems++
		case domain.StatusInProgress:
			stats.InProgressItems++
		default:
			stats.NotStartedItems++
		}
	}
	stats.CompletionRate = CompletionRate(stats.CompletedItems, stats.TotalItems)
	return stats
}

// CompletionRate is the rounded completed/total percentage, 0 when total is 0.
func CompletionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return percent(completed, total)
}

func percent(part, total int) int {
	return int(math.Round(100 * float64(part) / float64(total)))
}
