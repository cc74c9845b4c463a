package schedule

import (
	"time"

	"task-planner/internal/model"
)

// CompletionPolicy decides on which day an open repeating task is assumed to
// be completed. Future occurrences are counted from that day.
type CompletionPolicy func(task model.Task, currentDay time.Time) time.Time

// EarliestCompletion assumes a task is completed on the first day it can be:
// its start day when it has not started yet, otherwise currentDay.
func EarliestCompletion(task model.Task, currentDay time.Time) time.Time {
	if CompareDays(task.StartDate, currentDay) > 0 {
		return StartOfDay(task.StartDate)
	}
	return StartOfDay(currentDay)
}

// ProjectedRepeatingTasksForDay synthesizes the occurrences of open repeating
// tasks that would fall on targetDay. Only days after currentDay are
// projected. A nil policy means EarliestCompletion.
func ProjectedRepeatingTasksForDay(tasks []model.Task, targetDay, currentDay time.Time, policy CompletionPolicy) []model.Task {
	if CompareDays(targetDay, currentDay) <= 0 {
		return nil
	}
	if policy == nil {
		policy = EarliestCompletion
	}

	var projected []model.Task
	for _, task := range tasks {
		if !task.IsRepeating() || task.IsCompleted() || task.IsProjected {
			continue
		}
		completion := policy(task, currentDay)
		if SameDay(completion, targetDay) {
			continue
		}
		diffDays := DaysBetween(completion, targetDay)
		if diffDays < 0 || diffDays%*task.RepeatDays != 0 {
			continue
		}
		projected = append(projected, projectOnto(task, targetDay))
	}
	return projected
}

func projectOnto(task model.Task, targetDay time.Time) model.Task {
	offset := DaysBetween(task.StartDate, targetDay)

	p := task
	p.StartDate = AddDays(task.StartDate, offset)
	p.EndDate = AddDays(task.EndDate, offset)
	p.RepeatDays = cloneInt(task.RepeatDays)
	p.TimeEstimateMins = cloneInt(task.TimeEstimateMins)
	p.CompletedDate = nil
	p.Actions = nil
	p.IsProjected = true
	return p
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
