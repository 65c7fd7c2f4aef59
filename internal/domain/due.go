package domain

import (
	"strings"
	"time"
)

// DateLayout is the wire and storage format of due dates.
const DateLayout = time.DateOnly

// ParseDueDate parses a due date given as YYYY-MM-DD or RFC3339.
// The result is truncated to midnight UTC.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// FormatDueDate renders a due date in DateLayout.
func FormatDueDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOf strips the clock from t, keeping its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ResolveDueDate turns a relative due type into a concrete date.
// this_year is December 31 of now's year, next_year December 31 of the
// following year. Other types resolve to nil.
func ResolveDueDate(dueType DueType, now time.Time) *time.Time {
	var year int
	switch dueType {
	case DueTypeThisYear:
		year = now.Year()
	case DueTypeNextYear:
		year = now.Year() + 1
	default:
		return nil
	}
	t := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return &t
}
