package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrCycleDetected is returned when the dependency graph cannot be
	// topologically ordered
	ErrCycleDetected = errors.New("circular dependency detected")
)

// CycleError reports the ids left unordered after Kahn's algorithm drained
// every dependency-free task, i.e. the tasks participating in (or downstream
// of) a cycle.
type CycleError struct {
	TaskIDs []string
}

func (e *CycleError) Error() string {
	ids := append([]string(nil), e.TaskIDs...)
	sort.Strings(ids)
	return fmt.Sprintf("circular dependency detected: tasks [%s]", strings.Join(ids, ", "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}
