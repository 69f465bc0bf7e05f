package graph

// TopoSort orders the scope's ids so every task comes after all of its
// dependencies (Kahn's algorithm). Dependency ids outside the scope carry no
// constraint and are ignored. Ties break on input order, which keeps the
// result stable across runs. Returns a *CycleError when some tasks can never
// be ordered.
func (idx *Index) TopoSort() ([]string, error) {
	indegree := make(map[string]int, len(idx.tasks))
	for _, id := range idx.order {
		indegree[id] = 0
	}
	for _, id := range idx.order {
		for _, dep := range idx.tasks[id].Dependencies {
			if _, inScope := idx.tasks[dep]; inScope {
				indegree[id]++
			}
		}
	}

	queue := make([]string, 0, len(idx.order))
	for _, id := range idx.order {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]string, 0, len(idx.order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)
		for _, succ := range idx.successors[id] {
			if _, inScope := indegree[succ]; !inScope {
				continue
			}
			indegree[succ]--
			if indegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(sorted) != len(idx.order) {
		remaining := make([]string, 0, len(idx.order)-len(sorted))
		done := make(map[string]struct{}, len(sorted))
		for _, id := range sorted {
			done[id] = struct{}{}
		}
		for _, id := range idx.order {
			if _, ok := done[id]; !ok {
				remaining = append(remaining, id)
			}
		}
		return nil, &CycleError{TaskIDs: remaining}
	}
	return sorted, nil
}
