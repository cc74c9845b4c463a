package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"task-planner/internal/model"
)

// TaskRepository handles CRUD for tasks and their action log.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts task together with any actions already attached to it.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// ListByUser returns all tasks of a user ordered by start date, each with its
// actions in chronological order.
func (r *TaskRepository) ListByUser(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.withActions(ctx).Where("user_id = ?", userID).
		Order("start_date ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.withActions(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, fmt.Errorf("find task %d: %w", taskID, err)
	}
	return &task, nil
}

// Update saves the task's own columns, appends action and creates next in
// one transaction. Actions are never rewritten by Save.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task, action model.Action, next *model.Task) error {
	action.TaskID = task.ID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(task).Error; err != nil {
			return fmt.Errorf("save task %d: %w", task.ID, err)
		}
		if err := tx.Create(&action).Error; err != nil {
			return fmt.Errorf("append %s action: %w", action.Kind, err)
		}
		if next != nil {
			if err := tx.Create(next).Error; err != nil {
				return fmt.Errorf("create next occurrence: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	task.Actions = append(task.Actions, action)
	return nil
}

func (r *TaskRepository) AppendAction(ctx context.Context, task *model.Task, action model.Action) error {
	action.TaskID = task.ID
	if err := r.db.WithContext(ctx).Create(&action).Error; err != nil {
		return fmt.Errorf("append %s action: %w", action.Kind, err)
	}
	task.Actions = append(task.Actions, action)
	return nil
}

// Delete removes a task and its action log.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("task_id = ?", taskID).Delete(&model.Action{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete task %d: %w", taskID, err)
	}
	return nil
}

func (r *TaskRepository) withActions(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Actions", func(db *gorm.DB) *gorm.DB {
		return db.Order("timestamp ASC, id ASC")
	})
}
