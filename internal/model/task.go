package model

import "time"

// Task represents a single scheduled item in the planner.
//
// StartDate and EndDate carry calendar-day semantics; RangeDays is the
// inclusive day count between them and is kept consistent by the service
// layer.
type Task struct {
	ID               uint       `gorm:"primaryKey" yaml:"id"`
	UserID           uint       `gorm:"index" yaml:"user_id"`
	CategoryID       *uint      `gorm:"index" yaml:"category_id,omitempty"`
	Title            string     `yaml:"title"`
	Description      string     `yaml:"description,omitempty"`
	StartDate        time.Time  `gorm:"index" yaml:"start_date"`
	EndDate          time.Time  `yaml:"end_date"`
	RangeDays        int        `yaml:"range_days"`
	RepeatDays       *int       `yaml:"repeat_days,omitempty"`
	TimeEstimateMins *int       `yaml:"time_estimate_mins,omitempty"`
	CompletedDate    *time.Time `yaml:"completed_date,omitempty"`
	Actions          []Action   `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" yaml:"actions,omitempty"`
	IsProjected      bool       `gorm:"-" yaml:"-"`
	CreatedAt        time.Time  `yaml:"created_at"`
	UpdatedAt        time.Time  `yaml:"updated_at"`
}

func (t Task) IsCompleted() bool {
	return t.CompletedDate != nil
}

// IsRepeating reports whether the task recurs every RepeatDays days.
func (t Task) IsRepeating() bool {
	return t.RepeatDays != nil && *t.RepeatDays > 0
}
