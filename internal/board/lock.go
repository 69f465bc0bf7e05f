package board

import (
	"github.com/synapticflow/synaptic-flow/internal/model"
)

// Locked reports whether task may not be taken yet: true while any declared
// dependency present in statusByID is not done. Dependencies missing from the
// map carry no lock (same policy as the scheduler's dangling-reference
// handling). Lock state is recomputed from live statuses on every read and
// never trusted from storage.
func Locked(task *model.Task, statusByID map[string]model.TaskStatus) bool {
	for _, depID := range task.Dependencies {
		status, ok := statusByID[depID]
		if ok && status != model.TaskStatusDone {
			return true
		}
	}
	return false
}

// LockStates derives the lock flag for every task in the snapshot
func LockStates(tasks []*model.Task) map[string]bool {
	statusByID := make(map[string]model.TaskStatus, len(tasks))
	for _, t := range tasks {
		statusByID[t.ID] = t.Status
	}

	locked := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		locked[t.ID] = Locked(t, statusByID)
	}
	return locked
}
