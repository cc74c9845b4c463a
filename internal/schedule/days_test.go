package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAndEndOfDay(t *testing.T) {
	at := time.Date(2024, time.October, 5, 15, 42, 7, 123, time.UTC)

	assert.Equal(t, day(2024, time.October, 5), StartOfDay(at))
	assert.Equal(t, time.Date(2024, time.October, 5, 23, 59, 59, 999_000_000, time.UTC), EndOfDay(at))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(day(2024, time.October, 1), time.Date(2024, time.October, 1, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 4, DaysBetween(day(2024, time.October, 1), day(2024, time.October, 5)))
	assert.Equal(t, -4, DaysBetween(day(2024, time.October, 5), day(2024, time.October, 1)))
	assert.Equal(t, 1, DaysBetween(time.Date(2024, time.October, 1, 23, 59, 0, 0, time.UTC), day(2024, time.October, 2)))
}

func TestDaysBetweenAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	before := time.Date(2024, time.March, 30, 0, 0, 0, 0, loc)
	after := time.Date(2024, time.April, 1, 0, 0, 0, 0, loc)

	assert.Equal(t, 2, DaysBetween(before, after))
	assert.Equal(t, 3, CalculateRangeDays(before, after))
	require.True(t, SameDay(AddDays(before, 2), after))
}

func TestCompareDays(t *testing.T) {
	morning := time.Date(2024, time.October, 5, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, time.October, 5, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, CompareDays(morning, evening))
	assert.Equal(t, -1, CompareDays(morning, day(2024, time.October, 6)))
	assert.Equal(t, 1, CompareDays(evening, day(2024, time.October, 4)))
}
