package importer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"task-planner/internal/model"
	"task-planner/internal/schedule"
	"task-planner/internal/service"
	"task-planner/internal/store"
)

const sample = `
tasks:
  - title: Полить цветы
    start: 2024-11-18
    range_days: 2
    repeat_days: 7
    category: Дом
  - title: Подготовить отчёт
    description: квартальный
    start: 2024-11-01
    end: 2024-11-05
    estimate_mins: 120
  - title: Сдать проект
    end: 2024-11-30
    range_days: 10
`

func newService(t *testing.T) (*service.TaskService, *store.DemoStore) {
	t.Helper()
	demo := store.NewDemoStore(filepath.Join(t.TempDir(), "tasks.yaml"))
	return service.NewTaskService(demo, demo.Categories(), zap.NewNop()), demo
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	svc, demo := newService(t)
	user := &model.User{ID: 3}

	n, err := Import(ctx, svc, user, []byte(sample), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	tasks, err := demo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	report := tasks[0]
	assert.Equal(t, "Подготовить отчёт", report.Title)
	assert.Equal(t, 5, report.RangeDays)
	assert.Equal(t, 120, *report.TimeEstimateMins)

	plants := tasks[1]
	assert.Equal(t, time.Date(2024, time.November, 19, 0, 0, 0, 0, time.UTC), plants.EndDate)
	assert.True(t, plants.IsRepeating())
	assert.NotNil(t, plants.CategoryID)

	project := tasks[2]
	assert.Equal(t, time.Date(2024, time.November, 21, 0, 0, 0, 0, time.UTC), project.StartDate)
}

func TestImportErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	user := &model.User{ID: 3}

	_, err := Import(ctx, svc, user, []byte("tasks: ["), time.UTC)
	assert.Error(t, err)

	_, err = Import(ctx, svc, user, []byte("tasks: []"), time.UTC)
	assert.Error(t, err)

	_, err = Import(ctx, svc, user, []byte("tasks:\n  - title: x\n    start: 30.11.2024\n    range_days: 1\n"), time.UTC)
	assert.Error(t, err)

	n, err := Import(ctx, svc, user, []byte("tasks:\n  - title: ok\n    start: 2024-11-01\n    range_days: 1\n  - title: bad\n    start: 2024-11-01\n"), time.UTC)
	assert.ErrorIs(t, err, schedule.ErrInvalidArgument)
	assert.Equal(t, 1, n)
}
