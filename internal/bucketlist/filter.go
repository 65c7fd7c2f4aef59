package bucketlist

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
)

// DefaultDueSoonWindow is the look-ahead used by the due_soon filter.
const DefaultDueSoonWindow = 7 * 24 * time.Hour

// DueFilter selects items by due date.
type DueFilter string

const (
	DueOverdue    DueFilter = "overdue"
	DueSoon       DueFilter = "due_soon"
	DueNone       DueFilter = "no_due_date"
	DueHasDueDate DueFilter = "has_due_date"
)

// Valid reports whether f is a known due filter.
func (f DueFilter) Valid() bool {
	switch f {
	case DueOverdue, DueSoon, DueNone, DueHasDueDate:
		return true
	}
	return false
}

// FilterItemsBySearch keeps items whose title or description contains term,
// ignoring case. A blank term returns items unchanged.
func FilterItemsBySearch(items []domain.BucketItem, term string) []domain.BucketItem {
	term = strings.TrimSpace(term)
	if term == "" {
		return items
	}

	fold := cases.Fold()
	needle := fold.String(term)

	matched := make([]domain.BucketItem, 0, len(items))
	for _, item := range items {
		if strings.Contains(fold.String(item.Title), needle) ||
			(item.Description != nil && strings.Contains(fold.String(*item.Description), needle)) {
			matched = append(matched, item)
		}
	}
	return matched
}

// FilterItemsByDueDate applies a due date filter relative to now. Dates are
// compared by calendar day. overdue and due_soon skip completed items; a
// non-positive window means DefaultDueSoonWindow. Unknown filters return items unchanged.
func FilterItemsByDueDate(items []domain.BucketItem, filter DueFilter, now time.Time, window time.Duration) []domain.BucketItem {
	if window <= 0 {
		window = DefaultDueSoonWindow
	}
	today := domain.DateOf(now)
	horizon := today.Add(window)

	var keep func(item *domain.BucketItem) bool
	switch filter {
	case DueOverdue:
		keep = func(item *domain.BucketItem) bool {
			return item.DueDate != nil && !item.IsCompleted() && item.DueDate.Before(today)
		}
	case DueSoon:
		keep = func(item *domain.BucketItem) bool {
			return item.DueDate != nil && !item.IsCompleted() && withinDays(*item.DueDate, today, horizon)
		}
	case DueNone:
		keep = func(item *domain.BucketItem) bool { return item.DueDate == nil }
	case DueHasDueDate:
		keep = func(item *domain.BucketItem) bool { return item.DueDate != nil }
	default:
		return items
	}

	matched := make([]domain.BucketItem, 0, len(items))
	for i := range items {
		if keep(&items[i]) {
			matched = append(matched, items[i])
		}
	}
	return matched
}

func withinDays(due, from, to time.Time) bool {
	due = domain.DateOf(due)
	return !due.Before(from) && !due.After(to)
}
