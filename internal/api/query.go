package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/bucketlistapp/bucketlist-server/internal/bucketlist"
	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
	"github.com/bucketlistapp/bucketlist-server/internal/service"
	"github.com/bucketlistapp/bucketlist-server/internal/store"
)

// ItemQuery holds the list filters shared by private and public listings.
type ItemQuery struct {
	CategoryID int64  `query:"category_id" minimum:"0" doc:"Only items of this category"`
	Priority   string `query:"priority" doc:"high, medium or low"`
	Status     string `query:"status" doc:"not_started, in_progress or completed"`
	Search     string `query:"search" maxLength:"200" doc:"Case-insensitive match on title or description"`
	Due        string `query:"due" doc:"overdue, due_soon, no_due_date or has_due_date"`
	DueWindow  int    `query:"due_window_days" minimum:"0" maximum:"3650" doc:"Look-ahead for due_soon in days (default 7)"`
	SortBy     string `query:"sort_by" doc:"title, priority, created_at, updated_at or due_date"`
	SortOrder  string `query:"sort_order" doc:"asc or desc (default desc)"`
}

// listOptions converts q into service list options. Unknown enum values are
// rejected as validation errors.
func (q ItemQuery) listOptions() (service.ListOptions, error) {
	var opts service.ListOptions

	if q.CategoryID > 0 {
		opts.Filter.CategoryID = &q.CategoryID
	}
	if q.Priority != "" {
		p := domain.Priority(q.Priority)
		if !p.Valid() {
			return opts, domainerrors.Validationf("priority", "unknown priority %q", q.Priority)
		}
		opts.Filter.Priority = &p
	}
	if q.Status != "" {
		st := domain.Status(q.Status)
		if !st.Valid() {
			return opts, domainerrors.Validationf("status", "unknown status %q", q.Status)
		}
		opts.Filter.Status = &st
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		opts.Filter.Search = &term
	}
	if q.Due != "" {
		due := bucketlist.DueFilter(q.Due)
		if !due.Valid() {
			return opts, domainerrors.Validationf("due", "unknown due filter %q", q.Due)
		}
		opts.Due = due
		opts.DueWindow = time.Duration(q.DueWindow) * 24 * time.Hour
	}

	sort, err := parseSort(q.SortBy, q.SortOrder)
	if err != nil {
		return opts, err
	}
	opts.Sort = sort
	return opts, nil
}

func parseSort(sortBy, sortOrder string) (*domain.SortSpec, error) {
	if sortBy == "" && sortOrder == "" {
		return nil, nil
	}

	spec := domain.DefaultSort
	if sortBy != "" {
		spec.Field = domain.SortField(sortBy)
		if !spec.Field.Valid() {
			return nil, domainerrors.Validationf("sort_by", "cannot sort by %q", sortBy)
		}
	}
	switch domain.SortDirection(strings.ToLower(sortOrder)) {
	case "":
	case domain.SortAsc:
		spec.Direction = domain.SortAsc
	case domain.SortDesc:
		spec.Direction = domain.SortDesc
	default:
		return nil, domainerrors.Validationf("sort_order", "sort order must be asc or desc")
	}
	return &spec, nil
}

// parseOptionalBool reads "true"/"false" query values. Empty means unset.
func parseOptionalBool(field, raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, domainerrors.Validationf(field, "%s must be true or false", field)
	}
	return &v, nil
}

// withProfile narrows the filter to profileID when set.
func withProfile(f store.ItemFilter, profileID string) store.ItemFilter {
	if profileID != "" {
		f.ProfileID = &profileID
	}
	return f
}
