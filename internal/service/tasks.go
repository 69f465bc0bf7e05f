package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/synapticflow/synaptic-flow/internal/board"
	"github.com/synapticflow/synaptic-flow/internal/graph"
	"github.com/synapticflow/synaptic-flow/internal/model"
	"github.com/synapticflow/synaptic-flow/internal/schedule"
	"github.com/synapticflow/synaptic-flow/internal/storage"
	"github.com/synapticflow/synaptic-flow/internal/team"
)

// RecomputeStats summarizes one scheduling pass
type RecomputeStats struct {
	TaskCount     int           `json:"task_count"`
	CriticalCount int           `json:"critical_count"`
	Duration      time.Duration `json:"duration"`
	ComputedAt    time.Time     `json:"computed_at"`
}

// CreateTaskInput carries the caller-supplied fields for a new task. Status,
// ownership and project linkage are filled in by the service.
type CreateTaskInput struct {
	Title            string
	Description      string
	ParentID         string
	IsProject        bool
	Dependencies     []string
	ExpectedHours    float64
	PlannedStartDate *time.Time
	ExpirationDate   *time.Time
	AssigneeID       string
}

// TaskService is the mutation surface over the task store. Every mutation is
// persisted, then published as a TaskEvent; a watcher on the event stream
// reloads the snapshot, reruns the scheduling engine, and publishes the
// annotated result. Overlapping recomputes race safely: each pass is a pure
// function of its snapshot and the latest one wins.
type TaskService struct {
	js     nats.JetStreamContext
	store  storage.TaskStore
	engine *schedule.Engine
	logger *zap.Logger

	mu       sync.RWMutex
	snapshot []*model.Task
	stats    RecomputeStats
}

// NewTaskService creates the service, provisions the streams, and starts the
// recompute watcher.
func NewTaskService(js nats.JetStreamContext, store storage.TaskStore, engine *schedule.Engine, logger *zap.Logger) (*TaskService, error) {
	s := &TaskService{
		js:     js,
		store:  store,
		engine: engine,
		logger: logger.Named("task-service"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := s.setupStreams(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup streams: %w", err)
	}
	if err := s.setupWatcher(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup watcher: %w", err)
	}

	// Seed the snapshot so reads work before the first event arrives
	if _, err := s.Recompute(ctx); err != nil {
		s.logger.Warn("Initial schedule computation failed", zap.Error(err))
	}

	return s, nil
}

func (s *TaskService) setupStreams(ctx context.Context) error {
	for _, cfg := range []*nats.StreamConfig{
		{
			Name:     taskStreamName,
			Subjects: []string{"task.*"},
			Storage:  nats.FileStorage,
			MaxAge:   streamMaxAge,
			MaxMsgs:  streamMaxMsgs,
		},
		{
			Name:     scheduleStreamName,
			Subjects: []string{"schedule.*"},
			Storage:  nats.FileStorage,
			MaxAge:   streamMaxAge,
			MaxMsgs:  streamMaxMsgs,
		},
	} {
		_, err := s.js.AddStream(cfg, nats.Context(ctx))
		if err != nil {
			if err == nats.ErrStreamNameAlreadyInUse {
				s.logger.Info("Stream already exists", zap.String("stream", cfg.Name))
				continue
			}
			return err
		}
		s.logger.Info("Stream created", zap.String("stream", cfg.Name))
	}
	return nil
}

// setupWatcher subscribes to every task change and recomputes the schedule.
// The recompute reads a fresh snapshot from the store, so coalescing or
// ordering between events does not matter.
func (s *TaskService) setupWatcher(ctx context.Context) error {
	_, err := s.js.Subscribe("task.*", func(msg *nats.Msg) {
		var event model.TaskEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			s.logger.Error("Failed to unmarshal task event", zap.Error(err))
			return
		}

		rctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
		defer cancel()
		if _, err := s.Recompute(rctx); err != nil {
			s.logger.Error("Schedule recompute failed",
				zap.String("event", string(event.Type)),
				zap.Error(err))
		}
	}, nats.Context(ctx))
	return err
}

// CreateTask creates a project or subtask. Root tasks become their own
// project with the actor as owner/admin; subtasks inherit ownership, team and
// project linkage from the parent.
func (s *TaskService) CreateTask(ctx context.Context, actor *model.User, input CreateTaskInput) (*model.Task, error) {
	var parent *model.Task
	if input.ParentID != "" {
		var err error
		parent, err = s.store.Get(ctx, input.ParentID)
		if err != nil {
			if errors.Is(err, storage.ErrTaskNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}
		if parent.Deleted {
			return nil, ErrParentNotFound
		}
	}
	if !team.CanCreateSubtask(parent, actor) {
		return nil, ErrPermissionDenied
	}

	task := &model.Task{
		ID:               uuid.New().String(),
		Title:            input.Title,
		Description:      input.Description,
		ParentID:         input.ParentID,
		Dependencies:     input.Dependencies,
		Status:           model.TaskStatusTodo,
		ExpectedHours:    input.ExpectedHours,
		PlannedStartDate: input.PlannedStartDate,
		ExpirationDate:   input.ExpirationDate,
		AssigneeID:       input.AssigneeID,
		CreatedAt:        time.Now().UTC(),
	}

	if parent == nil {
		task.IsProject = input.IsProject
		task.ProjectID = task.ID
		task.OwnerID = actor.ID
		task.Team = []model.TeamMember{{UserID: actor.ID, Role: model.RoleAdmin}}
		task.MemberIDs = []string{actor.ID}
	} else {
		task.ProjectID = parent.ProjectID
		task.OwnerID = parent.OwnerID
		task.Team = append([]model.TeamMember(nil), parent.Team...)
		task.MemberIDs = append([]string(nil), parent.MemberIDs...)
	}

	if err := s.validateDependencies(ctx, task); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, task); err != nil {
		return nil, err
	}
	s.publishEvent(model.TaskEventCreated, taskCreatedSubject, task)
	return task, nil
}

// UpdateTask persists edits to title, description, dates, effort, parent and
// dependencies. Parent and dependency choices are re-validated so neither a
// cycle nor a broken task tree can be committed.
func (s *TaskService) UpdateTask(ctx context.Context, actor *model.User, task *model.Task) error {
	stored, err := s.store.Get(ctx, task.ID)
	if err != nil {
		return err
	}
	if !team.CanEdit(stored, actor) {
		return ErrPermissionDenied
	}

	if task.ParentID != stored.ParentID {
		if err := s.validateParent(ctx, task); err != nil {
			return err
		}
	}
	if err := s.validateDependencies(ctx, task); err != nil {
		return err
	}

	if err := s.store.Update(ctx, task); err != nil {
		return err
	}
	s.publishEvent(model.TaskEventUpdated, taskUpdatedSubject, task)
	return nil
}

// DeleteTask soft-deletes; the store refuses while active subtasks exist
func (s *TaskService) DeleteTask(ctx context.Context, actor *model.User, taskID string) error {
	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if !team.CanEdit(task, actor) {
		return ErrPermissionDenied
	}
	if err := s.store.SoftDelete(ctx, taskID); err != nil {
		return err
	}
	task.Deleted = true
	s.publishEvent(model.TaskEventDeleted, taskDeletedSubject, task)
	return nil
}

// TakeTask claims a todo task for the actor. The lock state is derived from
// the live snapshot, not from anything stored.
func (s *TaskService) TakeTask(ctx context.Context, actor *model.User, taskID string) error {
	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return err
	}

	active, err := s.store.ListActive(ctx)
	if err != nil {
		return err
	}
	locked := board.LockStates(active)

	if err := board.Take(task, actor.ID, locked[task.ID], time.Now().UTC()); err != nil {
		return err
	}
	if err := s.store.Update(ctx, task); err != nil {
		return err
	}
	s.publishEvent(model.TaskEventUpdated, taskUpdatedSubject, task)
	return nil
}

// CompleteTask finishes an inProgress task, recording the reported hours
func (s *TaskService) CompleteTask(ctx context.Context, actor *model.User, taskID string, actualHours float64) error {
	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if err := board.Complete(task, actor.ID, actualHours, time.Now().UTC()); err != nil {
		return err
	}
	if err := s.store.Update(ctx, task); err != nil {
		return err
	}
	s.publishEvent(model.TaskEventUpdated, taskUpdatedSubject, task)
	return nil
}

// RevertTask pushes a task back one column; owners and admins only
func (s *TaskService) RevertTask(ctx context.Context, actor *model.User, taskID string) error {
	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if !team.CanRevert(task, actor) {
		return ErrPermissionDenied
	}
	if err := board.Revert(task, time.Now().UTC()); err != nil {
		return err
	}
	if err := s.store.Update(ctx, task); err != nil {
		return err
	}
	s.publishEvent(model.TaskEventUpdated, taskUpdatedSubject, task)
	return nil
}

// AssignTask hands a task to a specific collaborator
func (s *TaskService) AssignTask(ctx context.Context, actor *model.User, taskID, userID string) error {
	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if !team.CanEdit(task, actor) {
		return ErrPermissionDenied
	}
	task.AssigneeID = userID
	if err := s.store.Update(ctx, task); err != nil {
		return err
	}
	s.publishEvent(model.TaskEventUpdated, taskUpdatedSubject, task)
	return nil
}

// Recompute reloads the active task set, runs the scheduling engine, caches
// the annotated snapshot, and publishes it. Safe to call concurrently.
func (s *TaskService) Recompute(ctx context.Context) (RecomputeStats, error) {
	start := time.Now()

	active, err := s.store.ListActive(ctx)
	if err != nil {
		return RecomputeStats{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	annotated, err := s.engine.Annotate(active)
	if err != nil {
		return RecomputeStats{}, fmt.Errorf("failed to annotate snapshot: %w", err)
	}

	stats := RecomputeStats{
		TaskCount:  len(annotated),
		Duration:   time.Since(start),
		ComputedAt: time.Now().UTC(),
	}
	for _, t := range annotated {
		if t.IsCritical() {
			stats.CriticalCount++
		}
	}

	s.mu.Lock()
	s.snapshot = annotated
	s.stats = stats
	s.mu.Unlock()

	data, err := json.Marshal(&model.ScheduleSnapshot{Tasks: annotated, ComputedAt: stats.ComputedAt})
	if err != nil {
		return stats, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if _, err := s.js.Publish(scheduleUpdatedSubject, data); err != nil {
		return stats, fmt.Errorf("failed to publish snapshot: %w", err)
	}

	return stats, nil
}

// Snapshot returns the last annotated task collection
func (s *TaskService) Snapshot() []*model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Task, len(s.snapshot))
	for i, t := range s.snapshot {
		out[i] = t.Clone()
	}
	return out
}

// LastRecomputeStats returns the stats of the most recent scheduling pass
func (s *TaskService) LastRecomputeStats() RecomputeStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// LockStates derives the lock flag for every active task
func (s *TaskService) LockStates(ctx context.Context) (map[string]bool, error) {
	active, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return board.LockStates(active), nil
}

// AggregatedHours rolls up estimated effort across a task's subtree
func (s *TaskService) AggregatedHours(ctx context.Context, taskID string) (float64, error) {
	active, err := s.store.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	return board.AggregatedHours(taskID, graph.NewIndex(active)), nil
}

// validateParent rejects a re-parent that would break the task tree: the new
// parent must exist, must not be deleted, and must not sit inside the task's
// own subtree.
func (s *TaskService) validateParent(ctx context.Context, task *model.Task) error {
	if task.ParentID == "" {
		return nil
	}
	if task.ParentID == task.ID {
		return ErrInvalidParent
	}

	parent, err := s.store.Get(ctx, task.ParentID)
	if err != nil {
		if errors.Is(err, storage.ErrTaskNotFound) {
			return ErrParentNotFound
		}
		return err
	}
	if parent.Deleted {
		return ErrParentNotFound
	}

	active, err := s.store.ListActive(ctx)
	if err != nil {
		return err
	}
	if _, ok := graph.NewIndex(active).Descendants(task.ID)[task.ParentID]; ok {
		return ErrInvalidParent
	}
	return nil
}

// validateDependencies checks the chosen dependency set against the candidate
// filter over the stored snapshot plus the task itself.
func (s *TaskService) validateDependencies(ctx context.Context, task *model.Task) error {
	if len(task.Dependencies) == 0 {
		return nil
	}

	active, err := s.store.ListActive(ctx)
	if err != nil {
		return err
	}

	scope := make([]*model.Task, 0, len(active)+1)
	replaced := false
	for _, t := range active {
		if t.ID == task.ID {
			scope = append(scope, task)
			replaced = true
		} else {
			scope = append(scope, t)
		}
	}
	if !replaced {
		scope = append(scope, task)
	}

	idx := graph.NewIndex(scope)
	valid := make(map[string]struct{})
	for _, c := range idx.ValidDependencyCandidates(task) {
		valid[c.ID] = struct{}{}
	}
	for _, dep := range task.Dependencies {
		if idx.Get(dep) == nil {
			// dangling reference: carries no constraint, tolerated
			continue
		}
		if _, ok := valid[dep]; !ok {
			return fmt.Errorf("%w: %s", ErrInvalidDependency, dep)
		}
	}
	return nil
}

func (s *TaskService) publishEvent(eventType model.TaskEventType, subject string, task *model.Task) {
	event := model.TaskEvent{
		Type:       eventType,
		Task:       task,
		OccurredAt: time.Now().UTC(),
	}
	data, err := json.Marshal(&event)
	if err != nil {
		s.logger.Error("Failed to marshal task event", zap.Error(err))
		return
	}
	if _, err := s.js.Publish(subject, data); err != nil {
		s.logger.Error("Failed to publish task event",
			zap.String("subject", subject),
			zap.String("task_id", task.ID),
			zap.Error(err))
		return
	}
	s.logger.Debug("Task event published",
		zap.String("subject", subject),
		zap.String("task_id", task.ID))
}
