package board

import (
	"github.com/synapticflow/synaptic-flow/internal/graph"
)

// AggregatedHours returns the estimated effort of a task including every
// transitive subtask. Iterative rollup; terminates because the parent
// relation is a forest.
func AggregatedHours(taskID string, idx *graph.Index) float64 {
	total := 0.0
	if t := idx.Get(taskID); t != nil {
		total = t.ExpectedHours
	}
	for id := range idx.Descendants(taskID) {
		if t := idx.Get(id); t != nil {
			total += t.ExpectedHours
		}
	}
	return total
}
