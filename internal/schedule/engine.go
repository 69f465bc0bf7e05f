package schedule

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/synapticflow/synaptic-flow/internal/graph"
	"github.com/synapticflow/synaptic-flow/internal/model"
)

// workdayHours converts expected effort to elapsed days. Pure arithmetic, no
// calendar or weekend awareness.
const workdayHours = 8.0

// Engine computes earliest-start dates, latest-finish dates and slack for a
// whole scheduling scope. Annotate is a pure function of the snapshot: it must
// be re-run in full whenever any task in the scope changes.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a scheduling engine
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger.Named("schedule-engine")}
}

// Annotate runs the forward and backward passes plus slack computation over
// the given tasks and returns annotated copies in input order. The input is
// never mutated. Tasks are processed in topological order of the dependency
// graph; cyclic input yields a graph.CycleError instead of a bogus schedule.
func (e *Engine) Annotate(tasks []*model.Task) ([]*model.Task, error) {
	copies := make([]*model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t == nil {
			continue
		}
		c := t.Clone()
		c.EarliestStartDate = nil
		c.LatestFinishDate = nil
		c.Slack = nil
		copies = append(copies, c)
	}

	idx := graph.NewIndex(copies)
	order, err := idx.TopoSort()
	if err != nil {
		return nil, err
	}

	e.forwardPass(idx, order)
	e.backwardPass(idx, order)
	e.computeSlack(idx, order)

	e.logger.Debug("schedule recomputed", zap.Int("tasks", idx.Len()))
	return idx.Tasks(), nil
}

// forwardPass sets each task's earliest start: the latest expiration date
// among its dependencies, falling back to the task's own planned start when
// no dependency carries a deadline. Dependency ids outside the scope add no
// constraint.
func (e *Engine) forwardPass(idx *graph.Index, order []string) {
	for _, id := range order {
		t := idx.Get(id)

		var latest *time.Time
		for _, depID := range t.Dependencies {
			dep := idx.Get(depID)
			if dep == nil || dep.ExpirationDate == nil {
				continue
			}
			if latest == nil || dep.ExpirationDate.After(*latest) {
				latest = dep.ExpirationDate
			}
		}

		if latest != nil {
			esd := *latest
			t.EarliestStartDate = &esd
		} else if t.PlannedStartDate != nil {
			esd := *t.PlannedStartDate
			t.EarliestStartDate = &esd
		}
	}
}

// backwardPass sets each task's latest finish: the earliest computed start
// among its successors, falling back to the task's own expiration date when
// no successor has one.
func (e *Engine) backwardPass(idx *graph.Index, order []string) {
	for i := len(order) - 1; i >= 0; i-- {
		t := idx.Get(order[i])

		var earliest *time.Time
		for _, succID := range idx.DirectSuccessors(t.ID) {
			succ := idx.Get(succID)
			if succ == nil || succ.EarliestStartDate == nil {
				continue
			}
			if earliest == nil || succ.EarliestStartDate.Before(*earliest) {
				earliest = succ.EarliestStartDate
			}
		}

		if earliest != nil {
			lfd := *earliest
			t.LatestFinishDate = &lfd
		} else if t.ExpirationDate != nil {
			lfd := *t.ExpirationDate
			t.LatestFinishDate = &lfd
		}
	}
}

// computeSlack derives whole-day float for every task with both schedule
// bounds: latest finish minus (earliest start + effort at 8h/day), floored
// toward negative infinity so -0.2 days reports as -1.
func (e *Engine) computeSlack(idx *graph.Index, order []string) {
	for _, id := range order {
		t := idx.Get(id)
		if t.EarliestStartDate == nil || t.LatestFinishDate == nil {
			continue
		}

		duration := time.Duration(clampHours(t.ExpectedHours) / workdayHours * float64(24*time.Hour))
		estimatedFinish := t.EarliestStartDate.Add(duration)
		days := t.LatestFinishDate.Sub(estimatedFinish).Hours() / 24
		slack := int(math.Floor(days))
		t.Slack = &slack
	}
}

// clampHours coerces missing or invalid effort values to zero
func clampHours(hours float64) float64 {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 {
		return 0
	}
	return hours
}
