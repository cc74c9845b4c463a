package service

import (
	"context"

	"task-planner/internal/model"
)

// TaskStore persists tasks. It is implemented by repository.TaskRepository
// and, in demo mode, by store.DemoStore.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	ListByUser(ctx context.Context, userID uint) ([]model.Task, error)
	FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error)
	// Update persists the task's own fields, appends action to its log and,
	// when next is not nil, creates next. Either all of it is stored or none.
	Update(ctx context.Context, task *model.Task, action model.Action, next *model.Task) error
	AppendAction(ctx context.Context, task *model.Task, action model.Action) error
	Delete(ctx context.Context, userID, taskID uint) error
}

// CategoryStore persists task categories.
type CategoryStore interface {
	GetOrCreate(ctx context.Context, userID uint, name string) (*model.Category, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Category, error)
}
