package schedule

import (
	"cmp"
	"time"

	"task-planner/internal/model"
)

// Comparator orders two tasks on a single dimension and is meant for
// slices.SortStableFunc.
type Comparator func(a, b model.Task) int

func ByStartDate(a, b model.Task) int {
	return a.StartDate.Compare(b.StartDate)
}

func ByEndDate(a, b model.Task) int {
	return a.EndDate.Compare(b.EndDate)
}

func ByRangeDays(a, b model.Task) int {
	return cmp.Compare(a.RangeDays, b.RangeDays)
}

// ByTimeEstimate sorts tasks without an estimate first.
func ByTimeEstimate(a, b model.Task) int {
	return compareOptional(a.TimeEstimateMins, b.TimeEstimateMins)
}

// ByRepeatDays sorts non-repeating tasks first.
func ByRepeatDays(a, b model.Task) int {
	return compareOptional(a.RepeatDays, b.RepeatDays)
}

// CompletedLast puts open tasks before completed ones.
func CompletedLast(a, b model.Task) int {
	return cmp.Compare(boolRank(a.IsCompleted()), boolRank(b.IsCompleted()))
}

// ByPriority orders tasks by their priority at the instant at, least urgent
// first.
func ByPriority(at time.Time) Comparator {
	return func(a, b model.Task) int {
		return cmp.Compare(
			CalculatePriority(a.StartDate, a.EndDate, at),
			CalculatePriority(b.StartDate, b.EndDate, at),
		)
	}
}

func Reverse(c Comparator) Comparator {
	return func(a, b model.Task) int {
		return -c(a, b)
	}
}

// Then chains comparators: later ones only break ties of earlier ones.
func Then(cmps ...Comparator) Comparator {
	return func(a, b model.Task) int {
		for _, c := range cmps {
			if r := c(a, b); r != 0 {
				return r
			}
		}
		return 0
	}
}

func compareOptional(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp.Compare(*a, *b)
	}
}

func boolRank(v bool) int {
	if v {
		return 1
	}
	return 0
}
