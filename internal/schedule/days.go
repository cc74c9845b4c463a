package schedule

import (
	"cmp"
	"time"
)

// StartOfDay returns 00:00:00.000 of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the number of calendar days from "from" to "to".
// It is negative when "to" falls on an earlier day. Time of day and DST
// transitions never affect the result.
func DaysBetween(from, to time.Time) int {
	return int(calendarDate(to).Sub(calendarDate(from)) / (24 * time.Hour))
}

// CompareDays compares the calendar days of a and b.
func CompareDays(a, b time.Time) int {
	return cmp.Compare(DaysBetween(b, a), 0)
}

func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
