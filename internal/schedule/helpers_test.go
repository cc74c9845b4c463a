package schedule

import (
	"time"

	"task-planner/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int {
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func task(id uint, start, end time.Time) model.Task {
	return model.Task{
		ID:        id,
		StartDate: start,
		EndDate:   end,
		RangeDays: CalculateRangeDays(start, end),
	}
}

func ids(tasks []model.Task) []uint {
	out := make([]uint, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}
