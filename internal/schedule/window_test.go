package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"task-planner/internal/model"
)

// windowFixture covers ranges overlapping 2024-11-18..2024-11-27 with a mix of
// open, completed and repeating tasks.
func windowFixture() []model.Task {
	t4 := task(4, day(2024, time.November, 16), day(2024, time.November, 22))
	t4.CompletedDate = timePtr(day(2024, time.November, 18))

	t5 := task(5, day(2024, time.November, 17), day(2024, time.November, 21))
	t5.CompletedDate = timePtr(day(2024, time.November, 17))

	t7 := task(7, day(2024, time.November, 20), day(2024, time.November, 20))
	t7.RepeatDays = intPtr(7)

	t8 := task(8, day(2024, time.November, 23), day(2024, time.November, 24))
	t8.RepeatDays = intPtr(2)

	t9 := task(9, day(2024, time.November, 1), day(2024, time.November, 2))
	t9.RepeatDays = intPtr(1)
	t9.CompletedDate = timePtr(day(2024, time.November, 2))

	return []model.Task{
		task(1, day(2024, time.November, 10), day(2024, time.November, 15)),
		task(2, day(2024, time.November, 15), day(2024, time.November, 19)),
		task(3, day(2024, time.November, 18), day(2024, time.November, 18)),
		t4,
		t5,
		task(6, day(2024, time.November, 19), day(2024, time.November, 25)),
		t7,
		t8,
		t9,
	}
}

func TestTasksForDay(t *testing.T) {
	current := time.Date(2024, time.November, 20, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		target time.Time
		want   []uint
	}{
		{name: "target before current day", target: day(2024, time.November, 18), want: []uint{2, 3, 4}},
		{name: "target equals current day", target: day(2024, time.November, 20), want: []uint{6, 7}},
		{name: "target after current day", target: day(2024, time.November, 23), want: []uint{8}},
		{name: "future day without starts", target: day(2024, time.November, 27), want: []uint{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TasksForDay(windowFixture(), tt.target, current)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestTasksForDayWithProjection(t *testing.T) {
	current := day(2024, time.November, 20)
	target := day(2024, time.November, 27)
	tasks := windowFixture()

	got := append(TasksForDay(tasks, target, current), ProjectedRepeatingTasksForDay(tasks, target, current, nil)...)

	assert.Equal(t, []uint{7, 8}, ids(got))
	for _, p := range got {
		assert.True(t, p.IsProjected)
		assert.True(t, SameDay(p.StartDate, target))
	}
	assert.Equal(t, day(2024, time.November, 28), got[1].EndDate)
}

func TestTasksForDaySingleDayTaskToday(t *testing.T) {
	d := day(2024, time.November, 20)
	single := task(1, d, d)

	got := TasksForDay([]model.Task{single}, d, d.Add(9*time.Hour))
	assert.Equal(t, []uint{1}, ids(got))
}
