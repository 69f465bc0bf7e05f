package board

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapticflow/synaptic-flow/internal/model"
)

func TestTake(t *testing.T) {
	now := time.Now()

	t.Run("assigns and starts", func(t *testing.T) {
		task := &model.Task{ID: "t", Status: model.TaskStatusTodo}
		require.NoError(t, Take(task, "alice", false, now))
		assert.Equal(t, model.TaskStatusInProgress, task.Status)
		assert.Equal(t, "alice", task.AssigneeID)
		require.NotNil(t, task.StartedAt)
		assert.Equal(t, now, *task.StartedAt)
	})

	t.Run("rejects locked task", func(t *testing.T) {
		task := &model.Task{ID: "t", Status: model.TaskStatusTodo, Dependencies: []string{"dep"}}
		err := Take(task, "alice", true, now)
		assert.ErrorIs(t, err, ErrTaskLocked)
		assert.Equal(t, model.TaskStatusTodo, task.Status)
	})

	t.Run("rejects non-todo task", func(t *testing.T) {
		task := &model.Task{ID: "t", Status: model.TaskStatusDone}
		assert.ErrorIs(t, Take(task, "alice", false, now), ErrInvalidTransition)
	})
}

func TestComplete(t *testing.T) {
	now := time.Now()

	t.Run("records hours and completion", func(t *testing.T) {
		started := now.Add(-2 * time.Hour)
		task := &model.Task{ID: "t", Status: model.TaskStatusInProgress, AssigneeID: "alice", StartedAt: &started}
		require.NoError(t, Complete(task, "alice", 6.5, now))
		assert.Equal(t, model.TaskStatusDone, task.Status)
		assert.Equal(t, 6.5, task.ActualHours)
		assert.Nil(t, task.StartedAt)
		require.NotNil(t, task.CompletedAt)
		assert.Equal(t, now, *task.CompletedAt)
	})

	t.Run("rejects non-assignee", func(t *testing.T) {
		task := &model.Task{ID: "t", Status: model.TaskStatusInProgress, AssigneeID: "alice"}
		assert.ErrorIs(t, Complete(task, "bob", 3, now), ErrNotAssignee)
	})

	t.Run("rejects todo task", func(t *testing.T) {
		task := &model.Task{ID: "t", Status: model.TaskStatusTodo}
		assert.ErrorIs(t, Complete(task, "alice", 3, now), ErrInvalidTransition)
	})

	t.Run("rejects invalid hours", func(t *testing.T) {
		for _, hours := range []float64{-1, math.NaN(), math.Inf(1)} {
			task := &model.Task{ID: "t", Status: model.TaskStatusInProgress, AssigneeID: "alice"}
			assert.ErrorIs(t, Complete(task, "alice", hours, now), ErrInvalidHours)
			assert.Equal(t, model.TaskStatusInProgress, task.Status)
		}
	})
}

func TestRevert(t *testing.T) {
	now := time.Now()

	t.Run("inProgress back to todo", func(t *testing.T) {
		started := now.Add(-time.Hour)
		task := &model.Task{ID: "t", Status: model.TaskStatusInProgress, AssigneeID: "alice", StartedAt: &started}
		require.NoError(t, Revert(task, now))
		assert.Equal(t, model.TaskStatusTodo, task.Status)
		assert.Empty(t, task.AssigneeID)
		assert.Nil(t, task.StartedAt)
	})

	t.Run("done back to inProgress", func(t *testing.T) {
		completed := now.Add(-time.Hour)
		task := &model.Task{ID: "t", Status: model.TaskStatusDone, AssigneeID: "alice", CompletedAt: &completed, ActualHours: 12}
		require.NoError(t, Revert(task, now))
		assert.Equal(t, model.TaskStatusInProgress, task.Status)
		assert.Nil(t, task.CompletedAt)
		assert.Zero(t, task.ActualHours)
		require.NotNil(t, task.StartedAt)
		assert.Equal(t, now, *task.StartedAt)
		// assignee survives so they can pick the work back up
		assert.Equal(t, "alice", task.AssigneeID)
	})

	t.Run("todo cannot revert", func(t *testing.T) {
		task := &model.Task{ID: "t", Status: model.TaskStatusTodo}
		assert.ErrorIs(t, Revert(task, now), ErrInvalidTransition)
	})
}
