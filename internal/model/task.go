package model

import (
	"time"
)

// TaskStatus represents the Kanban column a task sits in
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "inProgress"
	TaskStatusDone       TaskStatus = "done"
)

// IsValid reports whether the status is one of the known columns
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// TeamMember binds a user to a role within a project
type TeamMember struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// Task is the single core entity: a project, a subtask, or anything between.
// ParentID forms the ownership forest (empty means root project), Dependencies
// carries finish-to-start precedence edges to other task ids.
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	ParentID     string     `json:"parent_id,omitempty"`
	ProjectID    string     `json:"project_id,omitempty"`
	IsProject    bool       `json:"is_project,omitempty"`
	Dependencies []string   `json:"dependencies,omitempty"`
	Status       TaskStatus `json:"status"`

	ExpectedHours float64 `json:"expected_hours"`
	ActualHours   float64 `json:"actual_hours"`

	PlannedStartDate *time.Time `json:"planned_start_date,omitempty"`
	ExpirationDate   *time.Time `json:"expiration_date,omitempty"`

	// Derived by the scheduling engine on every snapshot; never source of truth.
	EarliestStartDate *time.Time `json:"earliest_start_date,omitempty"`
	LatestFinishDate  *time.Time `json:"latest_finish_date,omitempty"`
	Slack             *int       `json:"slack,omitempty"`

	Deleted    bool         `json:"deleted"`
	AssigneeID string       `json:"assignee_id,omitempty"`
	OwnerID    string       `json:"owner_id,omitempty"`
	MemberIDs  []string     `json:"member_ids,omitempty"`
	Team       []TeamMember `json:"team,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Clone returns a deep copy of the task. The engine annotates copies so the
// caller's snapshot stays untouched.
func (t *Task) Clone() *Task {
	c := *t
	if t.Dependencies != nil {
		c.Dependencies = append([]string(nil), t.Dependencies...)
	}
	if t.MemberIDs != nil {
		c.MemberIDs = append([]string(nil), t.MemberIDs...)
	}
	if t.Team != nil {
		c.Team = append([]TeamMember(nil), t.Team...)
	}
	c.PlannedStartDate = cloneTime(t.PlannedStartDate)
	c.ExpirationDate = cloneTime(t.ExpirationDate)
	c.EarliestStartDate = cloneTime(t.EarliestStartDate)
	c.LatestFinishDate = cloneTime(t.LatestFinishDate)
	c.StartedAt = cloneTime(t.StartedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	if t.Slack != nil {
		s := *t.Slack
		c.Slack = &s
	}
	return &c
}

// IsCritical reports whether the last scheduling pass left the task on or past
// the critical path.
func (t *Task) IsCritical() bool {
	return t.Slack != nil && *t.Slack <= 0
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
