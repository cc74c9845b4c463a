// Package store provides a file-backed task store for demo mode, when no
// database is configured.
package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"task-planner/internal/model"
	"task-planner/internal/schedule"
)

type demoData struct {
	Tasks      []model.Task     `yaml:"tasks"`
	Categories []model.Category `yaml:"categories,omitempty"`
}

// DemoStore keeps tasks in memory and persists them to a YAML file. Nothing
// is read or written implicitly: callers decide when to Load and Flush.
// It is safe for concurrent callers.
type DemoStore struct {
	path string

	mu         sync.RWMutex
	tasks      []model.Task
	categories []model.Category
	lastID     uint
	lastAction uint
	lastCat    uint
}

func NewDemoStore(path string) *DemoStore {
	return &DemoStore{path: path}
}

// Load replaces the in-memory state with the file contents. A missing file
// leaves the store empty.
func (s *DemoStore) Load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.reset(demoData{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("read demo data: %w", err)
	}

	var data demoData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parse demo data %s: %w", s.path, err)
	}
	s.reset(data)
	return nil
}

// Flush writes the current state to the file atomically.
func (s *DemoStore) Flush() error {
	s.mu.RLock()
	raw, err := yaml.Marshal(demoData{Tasks: s.tasks, Categories: s.categories})
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode demo data: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create demo dir %q: %w", dir, err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write demo data: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace demo data: %w", err)
	}
	return nil
}

func (s *DemoStore) reset(data demoData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = data.Tasks
	s.categories = data.Categories
	s.lastID, s.lastAction, s.lastCat = 0, 0, 0
	for _, task := range s.tasks {
		s.lastID = max(s.lastID, task.ID)
		for _, action := range task.Actions {
			s.lastAction = max(s.lastAction, action.ID)
		}
	}
	for _, category := range s.categories {
		s.lastCat = max(s.lastCat, category.ID)
	}
}

func (s *DemoStore) Create(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insert(task, time.Now())
	return nil
}

// insert assigns ids to task and its actions and stores a copy. The caller
// holds the write lock.
func (s *DemoStore) insert(task *model.Task, now time.Time) {
	s.lastID++
	task.ID = s.lastID
	task.CreatedAt, task.UpdatedAt = now, now
	for i := range task.Actions {
		s.lastAction++
		task.Actions[i].ID = s.lastAction
		task.Actions[i].TaskID = task.ID
	}
	s.tasks = append(s.tasks, cloneTask(*task))
}

// ListByUser mirrors the database ordering: start date, then id.
func (s *DemoStore) ListByUser(_ context.Context, userID uint) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []model.Task
	for _, task := range s.tasks {
		if task.UserID == userID {
			tasks = append(tasks, cloneTask(task))
		}
	}
	slices.SortStableFunc(tasks, schedule.Then(schedule.ByStartDate, func(a, b model.Task) int {
		return cmp.Compare(a.ID, b.ID)
	}))
	return tasks, nil
}

func (s *DemoStore) FindByID(_ context.Context, userID, taskID uint) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(userID, taskID)
	if i < 0 {
		return nil, fmt.Errorf("find task %d: %w", taskID, gorm.ErrRecordNotFound)
	}
	task := cloneTask(s.tasks[i])
	return &task, nil
}

// Update replaces the task's own fields, appends action to the stored log
// and inserts next, all under one lock. Nothing changes when task is missing.
func (s *DemoStore) Update(_ context.Context, task *model.Task, action model.Action, next *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(task.UserID, task.ID)
	if i < 0 {
		return fmt.Errorf("update task %d: %w", task.ID, gorm.ErrRecordNotFound)
	}
	now := time.Now()
	s.lastAction++
	action.ID = s.lastAction
	action.TaskID = task.ID

	updated := cloneTask(*task)
	updated.Actions = append(cloneActions(s.tasks[i].Actions), cloneAction(action))
	updated.UpdatedAt = now
	s.tasks[i] = updated
	if next != nil {
		s.insert(next, now)
	}

	task.UpdatedAt = now
	task.Actions = append(task.Actions, action)
	return nil
}

func (s *DemoStore) AppendAction(_ context.Context, task *model.Task, action model.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(task.UserID, task.ID)
	if i < 0 {
		return fmt.Errorf("append %s action: %w", action.Kind, gorm.ErrRecordNotFound)
	}
	s.lastAction++
	action.ID = s.lastAction
	action.TaskID = task.ID
	s.tasks[i].Actions = append(s.tasks[i].Actions, cloneAction(action))
	task.Actions = append(task.Actions, action)
	return nil
}

func (s *DemoStore) Delete(_ context.Context, userID, taskID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(userID, taskID)
	if i < 0 {
		return fmt.Errorf("delete task %d: %w", taskID, gorm.ErrRecordNotFound)
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	return nil
}

// Categories exposes the store's category list.
func (s *DemoStore) Categories() *DemoCategories {
	return &DemoCategories{s: s}
}

// DemoCategories is the category side of a DemoStore.
type DemoCategories struct {
	s *DemoStore
}

func (c *DemoCategories) GetOrCreate(_ context.Context, userID uint, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, category := range s.categories {
		if category.UserID == userID && category.Name == name {
			return &category, nil
		}
	}
	s.lastCat++
	now := time.Now()
	category := model.Category{ID: s.lastCat, UserID: userID, Name: name, CreatedAt: now, UpdatedAt: now}
	s.categories = append(s.categories, category)
	return &category, nil
}

func (c *DemoCategories) ListByUser(_ context.Context, userID uint) ([]model.Category, error) {
	s := c.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var categories []model.Category
	for _, category := range s.categories {
		if category.UserID == userID {
			categories = append(categories, category)
		}
	}
	slices.SortFunc(categories, func(a, b model.Category) int {
		return strings.Compare(a.Name, b.Name)
	})
	return categories, nil
}

func (s *DemoStore) index(userID, taskID uint) int {
	return slices.IndexFunc(s.tasks, func(t model.Task) bool {
		return t.ID == taskID && t.UserID == userID
	})
}

// cloneTask detaches a stored task from the caller's copy.
func cloneTask(task model.Task) model.Task {
	task.CategoryID = clonePtr(task.CategoryID)
	task.RepeatDays = clonePtr(task.RepeatDays)
	task.TimeEstimateMins = clonePtr(task.TimeEstimateMins)
	task.CompletedDate = clonePtr(task.CompletedDate)
	task.Actions = cloneActions(task.Actions)
	return task
}

func cloneActions(actions []model.Action) []model.Action {
	if actions == nil {
		return nil
	}
	out := make([]model.Action, len(actions))
	for i, action := range actions {
		out[i] = cloneAction(action)
	}
	return out
}

func cloneAction(action model.Action) model.Action {
	action.PostponeUntil = clonePtr(action.PostponeUntil)
	return action
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
