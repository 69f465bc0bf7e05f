package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/synapticflow/synaptic-flow/internal/model"
)

func newStore(t *testing.T) *SQLiteTaskStore {
	t.Helper()
	store, err := NewSQLiteTaskStore(zap.NewNop(), filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTask(title string) *model.Task {
	return &model.Task{
		ID:        uuid.New().String(),
		Title:     title,
		Status:    model.TaskStatusTodo,
		CreatedAt: time.Now().UTC(),
	}
}

func TestTaskStoreRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	planned := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	task := newTask("design")
	task.Description = "sketch the data model"
	task.Dependencies = []string{"dep-1", "dep-2"}
	task.ExpectedHours = 16
	task.PlannedStartDate = &planned
	task.OwnerID = "alice"
	task.MemberIDs = []string{"alice", "bob"}
	task.Team = []model.TeamMember{{UserID: "alice", Role: model.RoleAdmin}}

	require.NoError(t, store.Create(ctx, task))

	got, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Title, got.Title)
	assert.Equal(t, task.Dependencies, got.Dependencies)
	assert.Equal(t, task.MemberIDs, got.MemberIDs)
	assert.Equal(t, task.Team, got.Team)
	assert.Equal(t, task.ExpectedHours, got.ExpectedHours)
	require.NotNil(t, got.PlannedStartDate)
	assert.True(t, got.PlannedStartDate.Equal(planned))
	assert.Empty(t, got.AssigneeID)
}

func TestTaskStoreGetMissing(t *testing.T) {
	store := newStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskStoreUpdate(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	task := newTask("build")
	require.NoError(t, store.Create(ctx, task))

	now := time.Now().UTC()
	task.Status = model.TaskStatusInProgress
	task.AssigneeID = "bob"
	task.StartedAt = &now
	require.NoError(t, store.Update(ctx, task))

	got, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusInProgress, got.Status)
	assert.Equal(t, "bob", got.AssigneeID)
	require.NotNil(t, got.StartedAt)

	missing := newTask("ghost")
	assert.ErrorIs(t, store.Update(ctx, missing), ErrTaskNotFound)
}

func TestTaskStoreListQueries(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	parent := newTask("project")
	require.NoError(t, store.Create(ctx, parent))

	child := newTask("subtask")
	child.ParentID = parent.ID
	child.AssigneeID = "carol"
	require.NoError(t, store.Create(ctx, child))

	gone := newTask("old")
	require.NoError(t, store.Create(ctx, gone))
	require.NoError(t, store.SoftDelete(ctx, gone.ID))

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	byParent, err := store.ListByParent(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, byParent, 1)
	assert.Equal(t, child.ID, byParent[0].ID)

	byAssignee, err := store.ListByAssignee(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, byAssignee, 1)
	assert.Equal(t, child.ID, byAssignee[0].ID)
}

func TestTaskStoreSoftDeleteGuardsSubtasks(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	parent := newTask("project")
	require.NoError(t, store.Create(ctx, parent))

	child := newTask("subtask")
	child.ParentID = parent.ID
	require.NoError(t, store.Create(ctx, child))

	assert.ErrorIs(t, store.SoftDelete(ctx, parent.ID), ErrHasActiveSubtasks)

	require.NoError(t, store.SoftDelete(ctx, child.ID))
	require.NoError(t, store.SoftDelete(ctx, parent.ID))

	got, err := store.Get(ctx, parent.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)
}

func TestTaskStorePurgeDeletedBefore(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	task := newTask("stale")
	require.NoError(t, store.Create(ctx, task))
	require.NoError(t, store.SoftDelete(ctx, task.ID))

	// cutoff in the past keeps the row
	require.NoError(t, store.PurgeDeletedBefore(ctx, time.Now().UTC().Add(-time.Hour)))
	_, err := store.Get(ctx, task.ID)
	require.NoError(t, err)

	// cutoff in the future removes it
	require.NoError(t, store.PurgeDeletedBefore(ctx, time.Now().UTC().Add(time.Hour)))
	_, err = store.Get(ctx, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
