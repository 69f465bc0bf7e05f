package graph

import (
	"github.com/synapticflow/synaptic-flow/internal/model"
)

// Index holds an id-addressed view of one scheduling scope: the task arena
// plus child and reverse-dependency adjacency. Build it once per snapshot;
// all queries run against it without rescanning the slice.
type Index struct {
	tasks      map[string]*model.Task
	children   map[string][]string // parent id -> child ids
	successors map[string][]string // dependency id -> dependent ids
	order      []string            // ids in input order
}

// NewIndex builds an index over the given snapshot. Duplicate ids keep the
// last occurrence, matching a map rebuild from a document store.
func NewIndex(tasks []*model.Task) *Index {
	idx := &Index{
		tasks:      make(map[string]*model.Task, len(tasks)),
		children:   make(map[string][]string),
		successors: make(map[string][]string),
		order:      make([]string, 0, len(tasks)),
	}
	for _, t := range tasks {
		if t == nil {
			continue
		}
		if _, seen := idx.tasks[t.ID]; !seen {
			idx.order = append(idx.order, t.ID)
		}
		idx.tasks[t.ID] = t
	}
	for _, id := range idx.order {
		t := idx.tasks[id]
		if t.ParentID != "" {
			idx.children[t.ParentID] = append(idx.children[t.ParentID], t.ID)
		}
		for _, dep := range t.Dependencies {
			idx.successors[dep] = append(idx.successors[dep], t.ID)
		}
	}
	return idx
}

// Get returns the task for id, or nil if it is not in the scope
func (idx *Index) Get(id string) *model.Task {
	return idx.tasks[id]
}

// Len returns the number of distinct tasks in the scope
func (idx *Index) Len() int {
	return len(idx.tasks)
}

// Children returns the ids of direct subtasks of id
func (idx *Index) Children(id string) []string {
	return idx.children[id]
}

// DirectSuccessors returns the ids of tasks that declare id as a dependency
func (idx *Index) DirectSuccessors(id string) []string {
	return idx.successors[id]
}

// Tasks returns the indexed tasks in input order
func (idx *Index) Tasks() []*model.Task {
	out := make([]*model.Task, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.tasks[id])
	}
	return out
}
