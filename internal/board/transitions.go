package board

import (
	"errors"
	"math"
	"time"

	"github.com/synapticflow/synaptic-flow/internal/model"
)

var (
	// ErrTaskLocked is returned when taking a task whose dependencies are unfinished
	ErrTaskLocked = errors.New("task is locked by unfinished dependencies")

	// ErrInvalidTransition is returned for a status change outside the state machine
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotAssignee is returned when someone other than the assignee completes a task
	ErrNotAssignee = errors.New("only the assignee may complete the task")

	// ErrInvalidHours is returned when a completion reports negative or
	// non-finite actual hours
	ErrInvalidHours = errors.New("actual hours must be a non-negative finite number")
)

// Take moves a todo task to inProgress, assigning it to the actor. The caller
// supplies the lock state derived from the current snapshot.
func Take(task *model.Task, actorID string, locked bool, now time.Time) error {
	if task.Status != model.TaskStatusTodo {
		return ErrInvalidTransition
	}
	if locked {
		return ErrTaskLocked
	}
	task.Status = model.TaskStatusInProgress
	task.AssigneeID = actorID
	task.StartedAt = &now
	return nil
}

// Complete moves an inProgress task to done, recording the reported actual
// hours. Only the current assignee may complete.
func Complete(task *model.Task, actorID string, actualHours float64, now time.Time) error {
	if task.Status != model.TaskStatusInProgress {
		return ErrInvalidTransition
	}
	if task.AssigneeID != actorID {
		return ErrNotAssignee
	}
	if math.IsNaN(actualHours) || math.IsInf(actualHours, 0) || actualHours < 0 {
		return ErrInvalidHours
	}
	task.Status = model.TaskStatusDone
	task.CompletedAt = &now
	task.ActualHours = actualHours
	task.StartedAt = nil
	return nil
}

// Revert undoes one step: inProgress back to todo (dropping the assignee) or
// done back to inProgress (clearing the completion record and restarting the
// clock). Permission to revert is checked by the caller.
func Revert(task *model.Task, now time.Time) error {
	switch task.Status {
	case model.TaskStatusInProgress:
		task.Status = model.TaskStatusTodo
		task.AssigneeID = ""
		task.StartedAt = nil
		return nil
	case model.TaskStatusDone:
		task.Status = model.TaskStatusInProgress
		task.CompletedAt = nil
		task.StartedAt = &now
		task.ActualHours = 0
		return nil
	default:
		return ErrInvalidTransition
	}
}
