package bucketlist

import "github.com/bucketlistapp/bucketlist-server/internal/domain"

// GroupItemsByCategory partitions items by category in category order.
// Empty groups are omitted.
func GroupItemsByCategory(items []domain.BucketItem, categories []domain.Category) []domain.CategoryGroup {
	byCategory := make(map[int64][]domain.BucketItem, len(categories))
	for _, item := range items {
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
	}

	groups := make([]domain.CategoryGroup, 0, len(categories))
	for _, category := range categories {
		if matched := byCategory[category.ID]; len(matched) > 0 {
			groups = append(groups, domain.CategoryGroup{Category: category, Items: matched})
		}
	}
	return groups
}

// GroupItemsByPriority partitions items as high, medium, low. Empty groups are omitted.
func GroupItemsByPriority(items []domain.BucketItem) []domain.PriorityGroup {
	groups := make([]domain.PriorityGroup, 0, len(domain.Priorities))
	for _, p := range domain.Priorities {
		var matched []domain.BucketItem
		for _, item := range items {
			if item.Priority == p {
				matched = append(matched, item)
			}
		}
		if len(matched) > 0 {
			groups = append(groups, domain.PriorityGroup{Priority: p, Items: matched})
		}
	}
	return groups
}

// GroupItemsByStatus partitions items as not_started, in_progress, completed.
// Empty groups are omitted.
func GroupItemsByStatus(items []domain.BucketItem) []domain.StatusGroup {
	groups := make([]domain.StatusGroup, 0, len(domain.Statuses))
	for _, s := range domain.Statuses {
		var matched []domain.BucketItem
		for _, item := range items {
			if item.Status == s {
				matched = append(matched, item)
			}
		}
		if len(matched) > 0 {
			groups = append(groups, domain.StatusGroup{Status: s, Items: matched})
		}
	}
	return groups
}
