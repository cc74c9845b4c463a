package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"task-planner/internal/model"
	"task-planner/internal/schedule"
)

var (
	// ErrInvalidPostpone is returned when a postponement target is not after
	// today, the task's start and its previous postponement.
	ErrInvalidPostpone = errors.New("invalid postpone date")
	// ErrAlreadyCompleted is returned when completing or postponing a task
	// that is already done.
	ErrAlreadyCompleted = errors.New("task already completed")
)

// TaskInput represents data required to create or edit a task. Exactly two
// of StartDate, EndDate and RangeDays are required on creation.
type TaskInput struct {
	Title            string
	Description      string
	Category         string
	StartDate        *time.Time
	EndDate          *time.Time
	RangeDays        *int
	RepeatDays       *int
	TimeEstimateMins *int
}

// TaskService wraps task-related business logic.
type TaskService struct {
	tasks      TaskStore
	categories CategoryStore
	log        *zap.Logger
	policy     schedule.CompletionPolicy
	now        func() time.Time
}

func NewTaskService(tasks TaskStore, categories CategoryStore, log *zap.Logger) *TaskService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskService{
		tasks:      tasks,
		categories: categories,
		log:        log,
		policy:     schedule.EarliestCompletion,
		now:        time.Now,
	}
}

// WithCompletionPolicy replaces the rule used to project repeating tasks.
func (s *TaskService) WithCompletionPolicy(policy schedule.CompletionPolicy) *TaskService {
	s.policy = policy
	return s
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", schedule.ErrInvalidArgument)
	}
	if err := validateOptional(input); err != nil {
		return nil, err
	}

	dates, err := schedule.CalculateDates(schedule.DateRange{
		Start:     input.StartDate,
		End:       input.EndDate,
		RangeDays: input.RangeDays,
	})
	if err != nil {
		return nil, err
	}

	categoryID, err := s.categoryID(ctx, user, input.Category)
	if err != nil {
		return nil, err
	}

	task := model.Task{
		UserID:           user.ID,
		CategoryID:       categoryID,
		Title:            title,
		Description:      strings.TrimSpace(input.Description),
		StartDate:        *dates.Start,
		EndDate:          *dates.End,
		RangeDays:        *dates.RangeDays,
		RepeatDays:       positive(input.RepeatDays),
		TimeEstimateMins: input.TimeEstimateMins,
		Actions:          []model.Action{{Kind: model.ActionCreated, Timestamp: s.now()}},
	}

	if err := s.tasks.Create(ctx, &task); err != nil {
		return nil, err
	}
	s.log.Info("task created",
		zap.Uint("task", task.ID),
		zap.Uint("user", user.ID),
		zap.Int("range_days", task.RangeDays),
		zap.Bool("repeating", task.IsRepeating()))
	return &task, nil
}

// EditTask applies the non-empty fields of input. When only one of the date
// fields is given, the other source of truth is kept: a new start keeps the
// range length, a new end or range keeps the start.
func (s *TaskService) EditTask(ctx context.Context, user *model.User, taskID uint, input TaskInput) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	if err := validateOptional(input); err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		task.Title = title
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		task.Description = desc
	}
	if input.Category != "" {
		if task.CategoryID, err = s.categoryID(ctx, user, input.Category); err != nil {
			return nil, err
		}
	}
	if input.RepeatDays != nil {
		task.RepeatDays = positive(input.RepeatDays)
	}
	if input.TimeEstimateMins != nil {
		task.TimeEstimateMins = input.TimeEstimateMins
	}

	if r, ok := editedRange(*task, input); ok {
		dates, err := schedule.CalculateDates(r)
		if err != nil {
			return nil, err
		}
		task.StartDate, task.EndDate, task.RangeDays = *dates.Start, *dates.End, *dates.RangeDays
	}

	if err := s.tasks.Update(ctx, task, model.Action{Kind: model.ActionEdited, Timestamp: s.now()}, nil); err != nil {
		return nil, err
	}
	s.log.Info("task edited", zap.Uint("task", task.ID), zap.Uint("user", user.ID))
	return task, nil
}

// PostponeTask records a postponement of the task to until. The task's start
// date is left untouched.
func (s *TaskService) PostponeTask(ctx context.Context, user *model.User, taskID uint, until, now time.Time) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	if task.IsCompleted() {
		return nil, ErrAlreadyCompleted
	}
	if !schedule.IsPostponeDateValid(*task, until, now) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPostpone, until.Format(time.DateOnly))
	}

	if err := s.tasks.AppendAction(ctx, task, model.NewPostponement(now, schedule.StartOfDay(until))); err != nil {
		return nil, err
	}
	s.log.Info("task postponed",
		zap.Uint("task", task.ID),
		zap.Uint("user", user.ID),
		zap.String("until", until.Format(time.DateOnly)))
	return task, nil
}

// CompleteTask marks the task done on now's calendar day. A repeating task
// is followed by a new task starting RepeatDays after the completion day with
// the same range length; it is returned as next.
func (s *TaskService) CompleteTask(ctx context.Context, user *model.User, taskID uint, now time.Time) (task, next *model.Task, err error) {
	task, err = s.tasks.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, nil, err
	}
	if task.IsCompleted() {
		return nil, nil, ErrAlreadyCompleted
	}

	completed := schedule.StartOfDay(now)
	task.CompletedDate = &completed
	if task.IsRepeating() {
		start := schedule.AddDays(completed, *task.RepeatDays)
		repeat := *task.RepeatDays
		next = &model.Task{
			UserID:           task.UserID,
			CategoryID:       task.CategoryID,
			Title:            task.Title,
			Description:      task.Description,
			StartDate:        start,
			EndDate:          schedule.CalculateEndDate(start, task.RangeDays),
			RangeDays:        task.RangeDays,
			RepeatDays:       &repeat,
			TimeEstimateMins: task.TimeEstimateMins,
			Actions:          []model.Action{{Kind: model.ActionCreated, Timestamp: now}},
		}
	}
	if err := s.tasks.Update(ctx, task, model.Action{Kind: model.ActionCompleted, Timestamp: now}, next); err != nil {
		return nil, nil, fmt.Errorf("complete task %d: %w", task.ID, err)
	}

	fields := []zap.Field{zap.Uint("task", task.ID), zap.Uint("user", user.ID)}
	if next != nil {
		fields = append(fields, zap.Uint("next", next.ID), zap.Time("next_start", next.StartDate))
	}
	s.log.Info("task completed", fields...)
	return task, next, nil
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	return s.tasks.FindByID(ctx, user.ID, taskID)
}

// DeleteTask removes a task completely together with its history.
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID uint) error {
	if err := s.tasks.Delete(ctx, user.ID, taskID); err != nil {
		return err
	}
	s.log.Info("task deleted", zap.Uint("task", taskID), zap.Uint("user", user.ID))
	return nil
}

// TasksForDay returns what the user sees on day: stored tasks active that
// day and, for future days, projected repeats. Open tasks come first, most
// urgent at the top.
func (s *TaskService) TasksForDay(ctx context.Context, user *model.User, day, now time.Time) ([]model.Task, error) {
	tasks, err := s.tasks.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.tasksForDay(tasks, day, now), nil
}

// DayAgenda is the list of tasks of a single day.
type DayAgenda struct {
	Day   time.Time
	Tasks []model.Task
}

// Agenda returns TasksForDay for days consecutive days starting at from.
func (s *TaskService) Agenda(ctx context.Context, user *model.User, from time.Time, days int, now time.Time) ([]DayAgenda, error) {
	if days < 1 {
		return nil, fmt.Errorf("%w: agenda needs at least one day, got %d", schedule.ErrInvalidArgument, days)
	}
	tasks, err := s.tasks.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	agenda := make([]DayAgenda, 0, days)
	start := schedule.StartOfDay(from)
	for i := 0; i < days; i++ {
		day := schedule.AddDays(start, i)
		agenda = append(agenda, DayAgenda{Day: day, Tasks: s.tasksForDay(tasks, day, now)})
	}
	return agenda, nil
}

func (s *TaskService) tasksForDay(tasks []model.Task, day, now time.Time) []model.Task {
	visible := schedule.TasksForDay(tasks, day, now)
	if schedule.CompareDays(day, now) > 0 {
		open := slices.DeleteFunc(slices.Clone(tasks), model.Task.IsCompleted)
		visible = append(visible, schedule.ProjectedRepeatingTasksForDay(open, day, now, s.policy)...)
	}
	slices.SortStableFunc(visible, schedule.Then(
		schedule.CompletedLast,
		schedule.Reverse(schedule.ByPriority(PriorityAt(day, now))),
		schedule.ByStartDate,
	))
	return visible
}

// SortKey names the dimension ListTasks orders by.
type SortKey string

const (
	SortByStart    SortKey = "start"
	SortByEnd      SortKey = "end"
	SortByRange    SortKey = "range"
	SortByEstimate SortKey = "estimate"
	SortByRepeat   SortKey = "repeat"
)

var sortComparators = map[SortKey]schedule.Comparator{
	SortByStart:    schedule.ByStartDate,
	SortByEnd:      schedule.ByEndDate,
	SortByRange:    schedule.ByRangeDays,
	SortByEstimate: schedule.ByTimeEstimate,
	SortByRepeat:   schedule.ByRepeatDays,
}

func ParseSortKey(raw string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(raw)))
	if key == "" {
		return SortByStart, nil
	}
	if _, ok := sortComparators[key]; !ok {
		return "", fmt.Errorf("%w: unknown sort key %q", schedule.ErrInvalidArgument, raw)
	}
	return key, nil
}

// ListOptions controls ListTasks.
type ListOptions struct {
	SortBy           SortKey
	Descending       bool
	IncludeCompleted bool
}

// ListTasks returns the user's tasks ordered by one dimension. Completed
// tasks, when included, always come last.
func (s *TaskService) ListTasks(ctx context.Context, user *model.User, opts ListOptions) ([]model.Task, error) {
	tasks, err := s.tasks.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !opts.IncludeCompleted {
		tasks = slices.DeleteFunc(tasks, model.Task.IsCompleted)
	}

	by, ok := sortComparators[opts.SortBy]
	if !ok {
		by = schedule.ByStartDate
	}
	if opts.Descending {
		by = schedule.Reverse(by)
	}
	slices.SortStableFunc(tasks, schedule.Then(schedule.CompletedLast, by))
	return tasks, nil
}

// PriorityAt is the instant priorities are evaluated at when looking at day:
// now for today, the end of past days and the start of future days.
func PriorityAt(day, now time.Time) time.Time {
	switch schedule.CompareDays(day, now) {
	case 0:
		return now
	case -1:
		return schedule.EndOfDay(day)
	default:
		return schedule.StartOfDay(day)
	}
}

func (s *TaskService) categoryID(ctx context.Context, user *model.User, name string) (*uint, error) {
	if s.categories == nil || strings.TrimSpace(name) == "" {
		return nil, nil
	}
	category, err := s.categories.GetOrCreate(ctx, user.ID, name)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, nil
	}
	return &category.ID, nil
}

// editedRange combines the date fields of an edit with the stored ones.
func editedRange(task model.Task, input TaskInput) (schedule.DateRange, bool) {
	r := schedule.DateRange{Start: input.StartDate, End: input.EndDate, RangeDays: input.RangeDays}
	switch {
	case r.Start == nil && r.End == nil && r.RangeDays == nil:
		return r, false
	case r.Start != nil && r.End == nil && r.RangeDays == nil:
		r.RangeDays = &task.RangeDays
	case r.Start == nil && (r.End == nil) != (r.RangeDays == nil):
		r.Start = &task.StartDate
	}
	return r, true
}

func validateOptional(input TaskInput) error {
	if input.RepeatDays != nil && *input.RepeatDays < 0 {
		return fmt.Errorf("%w: repeat days must not be negative", schedule.ErrInvalidArgument)
	}
	if input.TimeEstimateMins != nil && *input.TimeEstimateMins < 0 {
		return fmt.Errorf("%w: time estimate must not be negative", schedule.ErrInvalidArgument)
	}
	return nil
}

// positive drops zero repeat intervals, which mean "does not repeat".
func positive(v *int) *int {
	if v == nil || *v <= 0 {
		return nil
	}
	c := *v
	return &c
}
