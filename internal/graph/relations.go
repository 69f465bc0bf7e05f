package graph

import (
	"github.com/synapticflow/synaptic-flow/internal/model"
)

// Ancestors returns every id strictly above taskID in the ownership tree.
// Missing ids simply terminate the walk; the visited set guards against a
// corrupt parent chain.
func (idx *Index) Ancestors(taskID string) map[string]struct{} {
	ancestors := make(map[string]struct{})
	current := idx.tasks[taskID]
	for current != nil && current.ParentID != "" {
		if _, seen := ancestors[current.ParentID]; seen {
			break
		}
		ancestors[current.ParentID] = struct{}{}
		current = idx.tasks[current.ParentID]
	}
	return ancestors
}

// Descendants returns every id strictly below taskID in the ownership tree.
// The start task is never part of its own descendant set, even when a corrupt
// parent chain loops back to it.
func (idx *Index) Descendants(taskID string) map[string]struct{} {
	descendants := make(map[string]struct{})
	if taskID == "" {
		return descendants
	}
	stack := append([]string(nil), idx.children[taskID]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := descendants[id]; seen || id == taskID {
			continue
		}
		descendants[id] = struct{}{}
		stack = append(stack, idx.children[id]...)
	}
	return descendants
}

// TransitiveSuccessors returns every id that depends, directly or through
// other tasks, on taskID. Traverses reverse dependency edges with a visited
// set so it terminates even if a cycle already slipped into the data.
func (idx *Index) TransitiveSuccessors(taskID string) map[string]struct{} {
	successors := make(map[string]struct{})
	if taskID == "" {
		return successors
	}
	stack := append([]string(nil), idx.successors[taskID]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := successors[id]; seen || id == taskID {
			continue
		}
		successors[id] = struct{}{}
		stack = append(stack, idx.successors[id]...)
	}
	return successors
}

// ValidDependencyCandidates returns the tasks that task may declare as
// dependencies without creating a cycle or a parent/dependency contradiction:
// everything except itself, its ancestors, its descendants, and its
// transitive successors. A dependency picker must filter with this.
func (idx *Index) ValidDependencyCandidates(task *model.Task) []*model.Task {
	if task == nil {
		return nil
	}
	invalid := map[string]struct{}{task.ID: {}}
	for id := range idx.Ancestors(task.ID) {
		invalid[id] = struct{}{}
	}
	for id := range idx.Descendants(task.ID) {
		invalid[id] = struct{}{}
	}
	for id := range idx.TransitiveSuccessors(task.ID) {
		invalid[id] = struct{}{}
	}

	candidates := make([]*model.Task, 0, len(idx.order))
	for _, id := range idx.order {
		if _, bad := invalid[id]; !bad {
			candidates = append(candidates, idx.tasks[id])
		}
	}
	return candidates
}
