package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapticflow/synaptic-flow/internal/model"
)

func task(id, parentID string, deps ...string) *model.Task {
	return &model.Task{
		ID:           id,
		Title:        id,
		ParentID:     parentID,
		Dependencies: deps,
		Status:       model.TaskStatusTodo,
	}
}

// project
// ├── design
// │   └── wireframes
// ├── build (depends on design)
// └── deploy (depends on build)
func sampleTasks() []*model.Task {
	return []*model.Task{
		task("project", ""),
		task("design", "project"),
		task("wireframes", "design"),
		task("build", "project", "design"),
		task("deploy", "project", "build"),
	}
}

func TestAncestors(t *testing.T) {
	idx := NewIndex(sampleTasks())

	assert.Empty(t, idx.Ancestors("project"))
	assert.Empty(t, idx.Ancestors("missing"))

	ancestors := idx.Ancestors("wireframes")
	assert.Len(t, ancestors, 2)
	assert.Contains(t, ancestors, "design")
	assert.Contains(t, ancestors, "project")
}

func TestDescendants(t *testing.T) {
	idx := NewIndex(sampleTasks())

	assert.Empty(t, idx.Descendants("wireframes"))
	assert.Empty(t, idx.Descendants(""))

	descendants := idx.Descendants("project")
	assert.Len(t, descendants, 4)
	for _, id := range []string{"design", "wireframes", "build", "deploy"} {
		assert.Contains(t, descendants, id)
	}
}

func TestTransitiveSuccessors(t *testing.T) {
	idx := NewIndex(sampleTasks())

	successors := idx.TransitiveSuccessors("design")
	assert.Len(t, successors, 2)
	assert.Contains(t, successors, "build")
	assert.Contains(t, successors, "deploy")

	assert.Empty(t, idx.TransitiveSuccessors("deploy"))
}

func TestDescendantsExcludeSelfOnCorruptParentChain(t *testing.T) {
	// p <-> c parent cycle; p must not appear among its own descendants
	idx := NewIndex([]*model.Task{
		task("p", "c"),
		task("c", "p"),
	})

	descendants := idx.Descendants("p")
	assert.Contains(t, descendants, "c")
	assert.NotContains(t, descendants, "p")
}

func TestTransitiveSuccessorsTerminatesOnCycle(t *testing.T) {
	// a <-> b is already corrupt; the traversal must still terminate
	idx := NewIndex([]*model.Task{
		task("a", "", "b"),
		task("b", "", "a"),
	})

	successors := idx.TransitiveSuccessors("a")
	assert.Contains(t, successors, "b")
}

func TestValidDependencyCandidates(t *testing.T) {
	tasks := sampleTasks()
	idx := NewIndex(tasks)

	design := idx.Get("design")
	require.NotNil(t, design)

	candidates := idx.ValidDependencyCandidates(design)
	ids := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		ids[c.ID] = struct{}{}
	}

	// excluded: itself, ancestor, descendant, transitive successors
	assert.NotContains(t, ids, "design")
	assert.NotContains(t, ids, "project")
	assert.NotContains(t, ids, "wireframes")
	assert.NotContains(t, ids, "build")
	assert.NotContains(t, ids, "deploy")
}

func TestValidDependencyCandidatesCrossProject(t *testing.T) {
	tasks := append(sampleTasks(), task("other", ""))
	idx := NewIndex(tasks)

	candidates := idx.ValidDependencyCandidates(idx.Get("design"))
	require.Len(t, candidates, 1)
	assert.Equal(t, "other", candidates[0].ID)
}
