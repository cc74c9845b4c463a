package model

import "time"

// ActionKind discriminates the entries of a task's history log.
type ActionKind string

const (
	ActionCreated   ActionKind = "created"
	ActionEdited    ActionKind = "edited"
	ActionPostponed ActionKind = "postponed"
	ActionCompleted ActionKind = "completed"
)

// Action is one append-only history event of a task. PostponeUntil is only
// meaningful for ActionPostponed.
type Action struct {
	ID            uint       `gorm:"primaryKey" yaml:"id"`
	TaskID        uint       `gorm:"index" yaml:"task_id"`
	Kind          ActionKind `gorm:"size:16" yaml:"kind"`
	Timestamp     time.Time  `yaml:"timestamp"`
	PostponeUntil *time.Time `yaml:"postpone_until,omitempty"`
}

// PostponeTarget returns the day a postponement defers the task to.
func (a Action) PostponeTarget() (time.Time, bool) {
	switch a.Kind {
	case ActionPostponed:
		if a.PostponeUntil == nil {
			return time.Time{}, false
		}
		return *a.PostponeUntil, true
	default:
		return time.Time{}, false
	}
}

func NewPostponement(at, until time.Time) Action {
	return Action{Kind: ActionPostponed, Timestamp: at, PostponeUntil: &until}
}
