package schedule

import (
	"time"

	"task-planner/internal/model"
)

// TasksForDay selects the stored tasks visible on targetDay.
//
// For today and past days a task is visible when targetDay lies inside its
// range and it is either still open or was completed on targetDay itself.
// For future days only tasks starting on targetDay are returned; projected
// repeats come from ProjectedRepeatingTasksForDay.
func TasksForDay(tasks []model.Task, targetDay, currentDay time.Time) []model.Task {
	var visible []model.Task
	if CompareDays(targetDay, currentDay) <= 0 {
		for _, task := range tasks {
			if !coversDay(task, targetDay) {
				continue
			}
			if task.CompletedDate != nil && !SameDay(*task.CompletedDate, targetDay) {
				continue
			}
			visible = append(visible, task)
		}
		return visible
	}

	for _, task := range tasks {
		if SameDay(task.StartDate, targetDay) {
			visible = append(visible, task)
		}
	}
	return visible
}

func coversDay(task model.Task, day time.Time) bool {
	return CompareDays(task.StartDate, day) <= 0 && CompareDays(day, task.EndDate) <= 0
}
