package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/synapticflow/synaptic-flow/internal/model"
)

func TestIndexAdjacencyFollowsInputOrder(t *testing.T) {
	idx := NewIndex([]*model.Task{
		task("root", ""),
		task("c", "root"),
		task("a", "root", "c"),
		task("b", "root", "c"),
	})

	assert.Equal(t, []string{"c", "a", "b"}, idx.Children("root"))
	assert.Equal(t, []string{"a", "b"}, idx.DirectSuccessors("c"))
}

func TestIndexDeduplicatesIDs(t *testing.T) {
	first := task("x", "")
	second := task("x", "")
	second.Title = "replacement"

	idx := NewIndex([]*model.Task{first, second, task("y", "")})

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, "replacement", idx.Get("x").Title)

	tasks := idx.Tasks()
	assert.Equal(t, "x", tasks[0].ID)
	assert.Equal(t, "y", tasks[1].ID)
}
