package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDueDate(t *testing.T) {
	now := time.Date(2025, time.March, 14, 10, 30, 0, 0, time.UTC)

	thisYear := ResolveDueDate(DueTypeThisYear, now)
	require.NotNil(t, thisYear)
	assert.Equal(t, "2025-12-31", FormatDueDate(*thisYear))

	nextYear := ResolveDueDate(DueTypeNextYear, now)
	require.NotNil(t, nextYear)
	assert.Equal(t, "2026-12-31", FormatDueDate(*nextYear))

	assert.Nil(t, ResolveDueDate(DueTypeUnspecified, now))
	assert.Nil(t, ResolveDueDate(DueTypeSpecificDate, now))
}

func TestParseDueDate(t *testing.T) {
	d, err := ParseDueDate("2025-07-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDueDate("2025-07-01T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDueDate("next tuesday")
	assert.Error(t, err)

	_, err = ParseDueDate("2025-13-40")
	assert.Error(t, err)
}

func TestPriorityRank(t *testing.T) {
	assert.Equal(t, 3, PriorityHigh.Rank())
	assert.Equal(t, 2, PriorityMedium.Rank())
	assert.Equal(t, 1, PriorityLow.Rank())
	assert.Equal(t, 0, Priority("urgent").Rank())
	assert.False(t, Priority("urgent").Valid())
}

func TestStatusAndDueTypeValid(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.Valid())
	}
	assert.False(t, Status("done").Valid())

	assert.True(t, DueType("").Valid())
	assert.True(t, DueTypeNextYear.Valid())
	assert.False(t, DueType("someday").Valid())
}

func TestBucketItemUpdate_IsEmpty(t *testing.T) {
	assert.True(t, (&BucketItemUpdate{}).IsEmpty())

	title := "Run a marathon"
	assert.False(t, (&BucketItemUpdate{Title: &title}).IsEmpty())
}
