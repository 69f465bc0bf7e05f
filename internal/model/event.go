package model

import "time"

// TaskEventType describes what happened to a task
type TaskEventType string

const (
	TaskEventCreated TaskEventType = "created"
	TaskEventUpdated TaskEventType = "updated"
	TaskEventDeleted TaskEventType = "deleted"
)

// TaskEvent is the change notification published for every mutation. The
// watcher recomputes the full schedule on each one.
type TaskEvent struct {
	Type       TaskEventType `json:"type"`
	Task       *Task         `json:"task"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// ScheduleSnapshot is the annotated task collection published after each
// scheduling pass.
type ScheduleSnapshot struct {
	Tasks      []*Task   `json:"tasks"`
	ComputedAt time.Time `json:"computed_at"`
}
