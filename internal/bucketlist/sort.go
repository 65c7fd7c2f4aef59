package bucketlist

import (
	"cmp"
	"slices"
	"strings"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
)

// SortItems returns a sorted copy of items; the input is never reordered.
// Priority sorts by rank, not by name. Items without a due date always sort
// after dated items, whatever the direction. Ties keep their input order.
// An empty direction means DefaultSort's.
func SortItems(items []domain.BucketItem, spec domain.SortSpec) []domain.BucketItem {
	sorted := slices.Clone(items)
	dir := spec.Direction
	if dir == "" {
		dir = domain.DefaultSort.Direction
	}
	desc := dir == domain.SortDesc

	slices.SortStableFunc(sorted, func(a, b domain.BucketItem) int {
		if spec.Field == domain.SortByDueDate {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			}
		}

		c := compareBy(spec.Field, &a, &b)
		if desc {
			return -c
		}
		return c
	})
	return sorted
}

func compareBy(field domain.SortField, a, b *domain.BucketItem) int {
	switch field {
	case domain.SortByTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case domain.SortByPriority:
		return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
	case domain.SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case domain.SortByDueDate:
		return a.DueDate.Compare(*b.DueDate)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}
