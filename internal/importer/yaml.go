package importer

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"task-planner/internal/model"
	"task-planner/internal/service"
)

// YAMLTask represents a single task in the YAML input. Dates use the
// 2006-01-02 layout; exactly two of start, end and range_days are required.
type YAMLTask struct {
	Title        string `yaml:"title"`
	Description  string `yaml:"description,omitempty"`
	Category     string `yaml:"category,omitempty"`
	Start        string `yaml:"start,omitempty"`
	End          string `yaml:"end,omitempty"`
	RangeDays    *int   `yaml:"range_days,omitempty"`
	RepeatDays   *int   `yaml:"repeat_days,omitempty"`
	EstimateMins *int   `yaml:"estimate_mins,omitempty"`
}

// YAMLInput represents the root structure of the YAML input.
type YAMLInput struct {
	Tasks []YAMLTask `yaml:"tasks"`
}

// Import parses a YAML document and creates its tasks for user.
// Returns the number of tasks created.
func Import(ctx context.Context, svc *service.TaskService, user *model.User, raw []byte, loc *time.Location) (int, error) {
	var input YAMLInput
	if err := yaml.Unmarshal(raw, &input); err != nil {
		return 0, fmt.Errorf("YAML parse error: %w", err)
	}

	if len(input.Tasks) == 0 {
		return 0, fmt.Errorf("no tasks found in YAML")
	}

	count := 0
	for i, yt := range input.Tasks {
		taskInput, err := yt.toInput(loc)
		if err != nil {
			return count, fmt.Errorf("task %d %q: %w", i+1, yt.Title, err)
		}
		if _, err := svc.CreateTask(ctx, user, taskInput); err != nil {
			return count, fmt.Errorf("add task %q: %w", yt.Title, err)
		}
		count++
	}
	return count, nil
}

func (yt YAMLTask) toInput(loc *time.Location) (service.TaskInput, error) {
	input := service.TaskInput{
		Title:            yt.Title,
		Description:      yt.Description,
		Category:         yt.Category,
		RangeDays:        yt.RangeDays,
		RepeatDays:       yt.RepeatDays,
		TimeEstimateMins: yt.EstimateMins,
	}

	var err error
	if input.StartDate, err = parseDay(yt.Start, loc); err != nil {
		return input, fmt.Errorf("start: %w", err)
	}
	if input.EndDate, err = parseDay(yt.End, loc); err != nil {
		return input, fmt.Errorf("end: %w", err)
	}
	return input, nil
}

func parseDay(raw string, loc *time.Location) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	parsed, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
