package schedule

import (
	"time"

	"task-planner/internal/model"
)

// LastPostponeUntilDay returns the target of the last postponement in
// actions. actions must already be in chronological order.
func LastPostponeUntilDay(actions []model.Action) (time.Time, bool) {
	var (
		last  time.Time
		found bool
	)
	for _, action := range actions {
		if until, ok := action.PostponeTarget(); ok {
			last, found = until, true
		}
	}
	return last, found
}

// IsPostponeDateValid reports whether task may be postponed to postponeDay.
// The day must come after currentDay, after the task's start and after any
// earlier postponement target.
func IsPostponeDateValid(task model.Task, postponeDay, currentDay time.Time) bool {
	if CompareDays(postponeDay, currentDay) <= 0 {
		return false
	}
	if CompareDays(postponeDay, task.StartDate) <= 0 {
		return false
	}
	if last, ok := LastPostponeUntilDay(task.Actions); ok && CompareDays(postponeDay, last) <= 0 {
		return false
	}
	return true
}
