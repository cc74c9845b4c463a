package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"task-planner/internal/model"
	"task-planner/internal/schedule"
	"task-planner/internal/store"
)

var testUser = &model.User{ID: 1, TelegramID: 100}

func day(d int) time.Time {
	return time.Date(2024, time.November, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func newTestService(t *testing.T) *TaskService {
	t.Helper()
	demo := store.NewDemoStore(filepath.Join(t.TempDir(), "tasks.yaml"))
	svc := NewTaskService(demo, demo.Categories(), zaptest.NewLogger(t))
	svc.now = func() time.Time { return day(20).Add(9 * time.Hour) }
	return svc
}

var errDiskFull = errors.New("disk full")

// brokenStore is a DemoStore whose writes can be switched to fail.
type brokenStore struct {
	*store.DemoStore
	failCreate, failUpdate, failAppend bool
}

func (s *brokenStore) Create(ctx context.Context, task *model.Task) error {
	if s.failCreate {
		return errDiskFull
	}
	return s.DemoStore.Create(ctx, task)
}

func (s *brokenStore) Update(ctx context.Context, task *model.Task, action model.Action, next *model.Task) error {
	if s.failUpdate {
		return errDiskFull
	}
	return s.DemoStore.Update(ctx, task, action, next)
}

func (s *brokenStore) AppendAction(ctx context.Context, task *model.Task, action model.Action) error {
	if s.failAppend {
		return errDiskFull
	}
	return s.DemoStore.AppendAction(ctx, task, action)
}

func newBrokenService(t *testing.T) (*TaskService, *brokenStore) {
	t.Helper()
	demo := store.NewDemoStore(filepath.Join(t.TempDir(), "tasks.yaml"))
	broken := &brokenStore{DemoStore: demo}
	svc := NewTaskService(broken, demo.Categories(), zaptest.NewLogger(t))
	svc.now = func() time.Time { return day(20).Add(9 * time.Hour) }
	return svc, broken
}

func mustCreate(t *testing.T, svc *TaskService, input TaskInput) *model.Task {
	t.Helper()
	task, err := svc.CreateTask(context.Background(), testUser, input)
	require.NoError(t, err)
	return task
}

func titles(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func TestCreateTaskDerivesMissingDate(t *testing.T) {
	svc := newTestService(t)

	byRange := mustCreate(t, svc, TaskInput{Title: " report ", StartDate: ptr(day(18).Add(15 * time.Hour)), RangeDays: ptr(3)})
	assert.Equal(t, "report", byRange.Title)
	assert.Equal(t, day(18), byRange.StartDate)
	assert.Equal(t, day(20), byRange.EndDate)
	require.Len(t, byRange.Actions, 1)
	assert.Equal(t, model.ActionCreated, byRange.Actions[0].Kind)

	byEnd := mustCreate(t, svc, TaskInput{Title: "trip", StartDate: ptr(day(1)), EndDate: ptr(day(5)), RepeatDays: ptr(0)})
	assert.Equal(t, 5, byEnd.RangeDays)
	assert.Nil(t, byEnd.RepeatDays, "zero repeat means non-repeating")

	byStart := mustCreate(t, svc, TaskInput{Title: "deadline", EndDate: ptr(day(10)), RangeDays: ptr(10), Category: "Работа"})
	assert.Equal(t, day(1), byStart.StartDate)
	require.NotNil(t, byStart.CategoryID)
}

func TestCreateTaskValidation(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name  string
		input TaskInput
	}{
		{name: "missing title", input: TaskInput{StartDate: ptr(day(1)), RangeDays: ptr(1)}},
		{name: "one date field", input: TaskInput{Title: "x", StartDate: ptr(day(1))}},
		{name: "three date fields", input: TaskInput{Title: "x", StartDate: ptr(day(1)), EndDate: ptr(day(1)), RangeDays: ptr(1)}},
		{name: "negative repeat", input: TaskInput{Title: "x", StartDate: ptr(day(1)), RangeDays: ptr(1), RepeatDays: ptr(-1)}},
		{name: "negative estimate", input: TaskInput{Title: "x", StartDate: ptr(day(1)), RangeDays: ptr(1), TimeEstimateMins: ptr(-5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTask(context.Background(), testUser, tt.input)
			assert.ErrorIs(t, err, schedule.ErrInvalidArgument)
		})
	}
}

func TestEditTaskKeepsSecondSourceOfTruth(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	task := mustCreate(t, svc, TaskInput{Title: "plan", StartDate: ptr(day(10)), EndDate: ptr(day(12))})

	moved, err := svc.EditTask(ctx, testUser, task.ID, TaskInput{StartDate: ptr(day(14))})
	require.NoError(t, err)
	assert.Equal(t, day(14), moved.StartDate)
	assert.Equal(t, day(16), moved.EndDate)
	assert.Equal(t, 3, moved.RangeDays)

	extended, err := svc.EditTask(ctx, testUser, task.ID, TaskInput{EndDate: ptr(day(20))})
	require.NoError(t, err)
	assert.Equal(t, day(14), extended.StartDate)
	assert.Equal(t, 7, extended.RangeDays)

	shrunk, err := svc.EditTask(ctx, testUser, task.ID, TaskInput{RangeDays: ptr(1), Title: "plan v2", TimeEstimateMins: ptr(45)})
	require.NoError(t, err)
	assert.Equal(t, day(14), shrunk.EndDate)
	assert.Equal(t, "plan v2", shrunk.Title)
	assert.Equal(t, 45, *shrunk.TimeEstimateMins)

	_, err = svc.EditTask(ctx, testUser, task.ID, TaskInput{StartDate: ptr(day(14)), EndDate: ptr(day(10))})
	assert.ErrorIs(t, err, schedule.ErrInvalidArgument)

	stored, err := svc.GetTask(ctx, testUser, task.ID)
	require.NoError(t, err)
	assert.Equal(t, day(14), stored.EndDate)
	assert.Equal(t, model.ActionEdited, stored.Actions[len(stored.Actions)-1].Kind)
}

func TestPostponeTask(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	now := day(20).Add(10 * time.Hour)
	task := mustCreate(t, svc, TaskInput{Title: "call", StartDate: ptr(day(19)), RangeDays: ptr(2)})

	_, err := svc.PostponeTask(ctx, testUser, task.ID, day(20), now)
	assert.ErrorIs(t, err, ErrInvalidPostpone)

	postponed, err := svc.PostponeTask(ctx, testUser, task.ID, day(22), now)
	require.NoError(t, err)
	assert.Equal(t, day(19), postponed.StartDate, "postponing keeps the start date")

	_, err = svc.PostponeTask(ctx, testUser, task.ID, day(22), now)
	assert.ErrorIs(t, err, ErrInvalidPostpone, "must move past the previous postponement")

	_, err = svc.PostponeTask(ctx, testUser, task.ID, day(23), now)
	require.NoError(t, err)

	stored, err := svc.GetTask(ctx, testUser, task.ID)
	require.NoError(t, err)
	last, ok := schedule.LastPostponeUntilDay(stored.Actions)
	require.True(t, ok)
	assert.Equal(t, day(23), last)
}

func TestCompleteTask(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	now := day(20).Add(18 * time.Hour)

	once := mustCreate(t, svc, TaskInput{Title: "once", StartDate: ptr(day(19)), RangeDays: ptr(2)})
	done, next, err := svc.CompleteTask(ctx, testUser, once.ID, now)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.NotNil(t, done.CompletedDate)
	assert.Equal(t, day(20), *done.CompletedDate)

	_, _, err = svc.CompleteTask(ctx, testUser, once.ID, now)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	_, err = svc.PostponeTask(ctx, testUser, once.ID, day(25), now)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	_, _, err = svc.CompleteTask(ctx, testUser, 999, now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCompleteRepeatingTaskCreatesNextOccurrence(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	now := day(20).Add(18 * time.Hour)

	weekly := mustCreate(t, svc, TaskInput{Title: "laundry", StartDate: ptr(day(19)), RangeDays: ptr(2), RepeatDays: ptr(7), TimeEstimateMins: ptr(40)})
	done, next, err := svc.CompleteTask(ctx, testUser, weekly.ID, now)
	require.NoError(t, err)
	require.NotNil(t, next)

	assert.True(t, done.IsCompleted())
	assert.NotEqual(t, done.ID, next.ID)
	assert.Equal(t, day(27), next.StartDate)
	assert.Equal(t, day(28), next.EndDate)
	assert.Equal(t, 2, next.RangeDays)
	assert.False(t, next.IsCompleted())
	assert.Equal(t, 40, *next.TimeEstimateMins)

	future, err := svc.TasksForDay(ctx, testUser, day(27), now)
	require.NoError(t, err)
	require.Len(t, future, 1, "the real next occurrence is not projected twice")
	assert.Equal(t, next.ID, future[0].ID)
	assert.False(t, future[0].IsProjected)

	later, err := svc.TasksForDay(ctx, testUser, day(34), now)
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.True(t, later[0].IsProjected)
	assert.Equal(t, day(34), later[0].StartDate)

	today, err := svc.TasksForDay(ctx, testUser, day(20), now)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, done.ID, today[0].ID, "completed today stays visible today")
}

func TestTasksForDayOrdersByPriority(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	now := day(20).Add(12 * time.Hour)

	mustCreate(t, svc, TaskInput{Title: "long", StartDate: ptr(day(15)), EndDate: ptr(day(30))})
	mustCreate(t, svc, TaskInput{Title: "urgent", StartDate: ptr(day(19)), EndDate: ptr(day(20))})
	mustCreate(t, svc, TaskInput{Title: "today", StartDate: ptr(day(20)), RangeDays: ptr(1)})
	finished := mustCreate(t, svc, TaskInput{Title: "finished", StartDate: ptr(day(20)), RangeDays: ptr(1)})
	_, _, err := svc.CompleteTask(ctx, testUser, finished.ID, now)
	require.NoError(t, err)

	got, err := svc.TasksForDay(ctx, testUser, now, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"urgent", "today", "long", "finished"}, titles(got))
}

func TestAgenda(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	now := day(20).Add(8 * time.Hour)

	mustCreate(t, svc, TaskInput{Title: "daily", StartDate: ptr(day(20)), RangeDays: ptr(1), RepeatDays: ptr(1)})
	mustCreate(t, svc, TaskInput{Title: "friday", StartDate: ptr(day(22)), RangeDays: ptr(1)})

	agenda, err := svc.Agenda(ctx, testUser, now, 4, now)
	require.NoError(t, err)
	require.Len(t, agenda, 4)

	assert.Equal(t, day(20), agenda[0].Day)
	assert.Equal(t, []string{"daily"}, titles(agenda[0].Tasks))
	assert.Equal(t, []string{"daily"}, titles(agenda[1].Tasks))
	assert.True(t, agenda[1].Tasks[0].IsProjected)
	assert.ElementsMatch(t, []string{"daily", "friday"}, titles(agenda[2].Tasks))
	assert.Equal(t, []string{"daily"}, titles(agenda[3].Tasks))

	_, err = svc.Agenda(ctx, testUser, now, 0, now)
	assert.ErrorIs(t, err, schedule.ErrInvalidArgument)
}

func TestAgendaWithCustomCompletionPolicy(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t).WithCompletionPolicy(func(task model.Task, _ time.Time) time.Time {
		return task.StartDate
	})
	now := day(20)

	mustCreate(t, svc, TaskInput{Title: "every third", StartDate: ptr(day(18)), RangeDays: ptr(1), RepeatDays: ptr(3)})

	agenda, err := svc.Agenda(ctx, testUser, day(21), 3, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"every third"}, titles(agenda[0].Tasks))
	assert.Empty(t, agenda[1].Tasks)
	assert.Empty(t, agenda[2].Tasks)
}

func TestListTasks(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	mustCreate(t, svc, TaskInput{Title: "b", StartDate: ptr(day(2)), RangeDays: ptr(1), TimeEstimateMins: ptr(30)})
	mustCreate(t, svc, TaskInput{Title: "a", StartDate: ptr(day(1)), RangeDays: ptr(4)})
	done := mustCreate(t, svc, TaskInput{Title: "c", StartDate: ptr(day(3)), RangeDays: ptr(2), TimeEstimateMins: ptr(10)})
	mustCreate(t, svc, TaskInput{Title: "d", StartDate: ptr(day(4)), RangeDays: ptr(2), TimeEstimateMins: ptr(10)})
	_, _, err := svc.CompleteTask(ctx, testUser, done.ID, day(4))
	require.NoError(t, err)

	open, err := svc.ListTasks(ctx, testUser, ListOptions{SortBy: SortByEstimate})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d", "b"}, titles(open))

	all, err := svc.ListTasks(ctx, testUser, ListOptions{SortBy: SortByRange, Descending: true, IncludeCompleted: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d", "b", "c"}, titles(all))
}

func TestParseSortKey(t *testing.T) {
	key, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortByStart, key)

	key, err = ParseSortKey(" Repeat ")
	require.NoError(t, err)
	assert.Equal(t, SortByRepeat, key)

	_, err = ParseSortKey("color")
	assert.ErrorIs(t, err, schedule.ErrInvalidArgument)
}

func TestPriorityAt(t *testing.T) {
	now := day(20).Add(13 * time.Hour)

	assert.Equal(t, now, PriorityAt(day(20), now))
	assert.Equal(t, schedule.EndOfDay(day(18)), PriorityAt(day(18), now))
	assert.Equal(t, day(23), PriorityAt(day(23).Add(5*time.Hour), now))
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	task := mustCreate(t, svc, TaskInput{Title: "x", StartDate: ptr(day(1)), RangeDays: ptr(1)})

	require.NoError(t, svc.DeleteTask(ctx, testUser, task.ID))
	_, err := svc.GetTask(ctx, testUser, task.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCompleteTaskFailureLeavesTaskOpen(t *testing.T) {
	ctx := context.Background()
	svc, broken := newBrokenService(t)
	now := day(20).Add(18 * time.Hour)
	weekly := mustCreate(t, svc, TaskInput{Title: "laundry", StartDate: ptr(day(19)), RangeDays: ptr(2), RepeatDays: ptr(7)})

	broken.failUpdate = true
	done, next, err := svc.CompleteTask(ctx, testUser, weekly.ID, now)
	require.ErrorIs(t, err, errDiskFull)
	assert.Nil(t, done)
	assert.Nil(t, next)

	tasks, err := svc.ListTasks(ctx, testUser, ListOptions{IncludeCompleted: true})
	require.NoError(t, err)
	require.Len(t, tasks, 1, "no next occurrence without a completion")
	assert.False(t, tasks[0].IsCompleted())
	assert.Len(t, tasks[0].Actions, 1)

	broken.failUpdate = false
	done, next, err = svc.CompleteTask(ctx, testUser, weekly.ID, now)
	require.NoError(t, err, "a retry completes the task")
	require.NotNil(t, next)
	assert.True(t, done.IsCompleted())
	assert.Equal(t, day(27), next.StartDate)

	tasks, err = svc.ListTasks(ctx, testUser, ListOptions{IncludeCompleted: true})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestCompleteTaskDoesNotCreateSeparately(t *testing.T) {
	ctx := context.Background()
	svc, broken := newBrokenService(t)
	weekly := mustCreate(t, svc, TaskInput{Title: "laundry", StartDate: ptr(day(19)), RangeDays: ptr(2), RepeatDays: ptr(7)})

	broken.failCreate = true
	_, next, err := svc.CompleteTask(ctx, testUser, weekly.ID, day(20).Add(18*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.NotZero(t, next.ID)
}

func TestWriteFailuresLeaveStoredState(t *testing.T) {
	ctx := context.Background()
	svc, broken := newBrokenService(t)
	task := mustCreate(t, svc, TaskInput{Title: "plan", StartDate: ptr(day(20)), EndDate: ptr(day(22))})

	broken.failUpdate = true
	_, err := svc.EditTask(ctx, testUser, task.ID, TaskInput{Title: "renamed", RangeDays: ptr(1)})
	require.ErrorIs(t, err, errDiskFull)

	broken.failAppend = true
	_, err = svc.PostponeTask(ctx, testUser, task.ID, day(23), day(20).Add(9*time.Hour))
	require.ErrorIs(t, err, errDiskFull)

	stored, err := svc.GetTask(ctx, testUser, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "plan", stored.Title)
	assert.Equal(t, day(22), stored.EndDate)
	require.Len(t, stored.Actions, 1)
	assert.Equal(t, model.ActionCreated, stored.Actions[0].Kind)

	broken.failCreate = true
	_, err = svc.CreateTask(ctx, testUser, TaskInput{Title: "lost", StartDate: ptr(day(20)), RangeDays: ptr(1)})
	require.ErrorIs(t, err, errDiskFull)
	tasks, err := svc.ListTasks(ctx, testUser, ListOptions{IncludeCompleted: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"plan"}, titles(tasks))
}
