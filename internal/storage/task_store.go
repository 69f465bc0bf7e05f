package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/synapticflow/synaptic-flow/internal/model"
)

var (
	// ErrTaskNotFound is returned when a task id has no row
	ErrTaskNotFound = errors.New("task not found")

	// ErrHasActiveSubtasks is returned when deleting a task that still has
	// non-deleted children
	ErrHasActiveSubtasks = errors.New("task has active subtasks")
)

// TaskStore defines the persistent task collection contract. Derived schedule
// fields are not persisted here; the engine recomputes them per snapshot.
type TaskStore interface {
	// Create inserts a new task
	Create(ctx context.Context, task *model.Task) error

	// Update replaces the stored task
	Update(ctx context.Context, task *model.Task) error

	// Get retrieves a task by id
	Get(ctx context.Context, id string) (*model.Task, error)

	// ListActive retrieves every non-deleted task
	ListActive(ctx context.Context) ([]*model.Task, error)

	// ListByParent retrieves the non-deleted direct subtasks of parentID
	ListByParent(ctx context.Context, parentID string) ([]*model.Task, error)

	// ListByAssignee retrieves the non-deleted tasks assigned to userID
	ListByAssignee(ctx context.Context, userID string) ([]*model.Task, error)

	// SoftDelete flags a task deleted; refuses while active subtasks exist
	SoftDelete(ctx context.Context, id string) error

	// PurgeDeletedBefore hard-removes soft-deleted rows older than the cutoff
	PurgeDeletedBefore(ctx context.Context, before time.Time) error

	// Close releases the underlying database
	Close() error
}

// SQLiteTaskStore implements TaskStore using SQLite
type SQLiteTaskStore struct {
	logger *zap.Logger
	db     *sql.DB
}

// NewSQLiteTaskStore opens (or creates) the task database at dbPath
func NewSQLiteTaskStore(logger *zap.Logger, dbPath string) (*SQLiteTaskStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteTaskStore{
		logger: logger.Named("task-store"),
		db:     db,
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initialize creates the tasks table if it doesn't exist
func (s *SQLiteTaskStore) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			parent_id TEXT,
			project_id TEXT,
			is_project INTEGER NOT NULL DEFAULT 0,
			dependencies TEXT,
			status TEXT NOT NULL,
			expected_hours REAL NOT NULL DEFAULT 0,
			actual_hours REAL NOT NULL DEFAULT 0,
			planned_start_date DATETIME,
			expiration_date DATETIME,
			deleted INTEGER NOT NULL DEFAULT 0,
			assignee_id TEXT,
			owner_id TEXT,
			member_ids TEXT,
			team TEXT,
			created_at DATETIME NOT NULL,
			started_at DATETIME,
			completed_at DATETIME,
			deleted_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_parent_id ON tasks(parent_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_assignee_id ON tasks(assignee_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
		CREATE INDEX IF NOT EXISTS idx_tasks_deleted ON tasks(deleted);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}

// Create implements TaskStore.Create
func (s *SQLiteTaskStore) Create(ctx context.Context, task *model.Task) error {
	deps, members, teamJSON, err := encodeSets(task)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, title, description, parent_id, project_id, is_project,
			dependencies, status, expected_hours, actual_hours,
			planned_start_date, expiration_date, deleted, assignee_id,
			owner_id, member_ids, team, created_at, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.Title,
		task.Description,
		nullString(task.ParentID),
		nullString(task.ProjectID),
		task.IsProject,
		deps,
		string(task.Status),
		task.ExpectedHours,
		task.ActualHours,
		nullTime(task.PlannedStartDate),
		nullTime(task.ExpirationDate),
		task.Deleted,
		nullString(task.AssigneeID),
		nullString(task.OwnerID),
		members,
		teamJSON,
		task.CreatedAt,
		nullTime(task.StartedAt),
		nullTime(task.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// Update implements TaskStore.Update
func (s *SQLiteTaskStore) Update(ctx context.Context, task *model.Task) error {
	deps, members, teamJSON, err := encodeSets(task)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?,
			description = ?,
			parent_id = ?,
			project_id = ?,
			is_project = ?,
			dependencies = ?,
			status = ?,
			expected_hours = ?,
			actual_hours = ?,
			planned_start_date = ?,
			expiration_date = ?,
			deleted = ?,
			assignee_id = ?,
			owner_id = ?,
			member_ids = ?,
			team = ?,
			started_at = ?,
			completed_at = ?
		WHERE id = ?`,
		task.Title,
		task.Description,
		nullString(task.ParentID),
		nullString(task.ProjectID),
		task.IsProject,
		deps,
		string(task.Status),
		task.ExpectedHours,
		task.ActualHours,
		nullTime(task.PlannedStartDate),
		nullTime(task.ExpirationDate),
		task.Deleted,
		nullString(task.AssigneeID),
		nullString(task.OwnerID),
		members,
		teamJSON,
		nullTime(task.StartedAt),
		nullTime(task.CompletedAt),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// Get implements TaskStore.Get
func (s *SQLiteTaskStore) Get(ctx context.Context, id string) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// ListActive implements TaskStore.ListActive
func (s *SQLiteTaskStore) ListActive(ctx context.Context) ([]*model.Task, error) {
	return s.list(ctx, selectColumns+" FROM tasks WHERE deleted = 0 ORDER BY created_at")
}

// ListByParent implements TaskStore.ListByParent
func (s *SQLiteTaskStore) ListByParent(ctx context.Context, parentID string) ([]*model.Task, error) {
	return s.list(ctx, selectColumns+" FROM tasks WHERE deleted = 0 AND parent_id = ? ORDER BY created_at", parentID)
}

// ListByAssignee implements TaskStore.ListByAssignee
func (s *SQLiteTaskStore) ListByAssignee(ctx context.Context, userID string) ([]*model.Task, error) {
	return s.list(ctx, selectColumns+" FROM tasks WHERE deleted = 0 AND assignee_id = ? ORDER BY created_at", userID)
}

// SoftDelete implements TaskStore.SoftDelete. A task with non-deleted
// children cannot be removed; the subtree must be deleted leaves-first.
func (s *SQLiteTaskStore) SoftDelete(ctx context.Context, id string) error {
	var children int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks WHERE parent_id = ? AND deleted = 0", id).Scan(&children)
	if err != nil {
		return fmt.Errorf("failed to count subtasks: %w", err)
	}
	if children > 0 {
		return ErrHasActiveSubtasks
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET deleted = 1, deleted_at = ? WHERE id = ? AND deleted = 0",
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// PurgeDeletedBefore implements TaskStore.PurgeDeletedBefore
func (s *SQLiteTaskStore) PurgeDeletedBefore(ctx context.Context, before time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE deleted = 1 AND deleted_at < ?", before)
	if err != nil {
		return fmt.Errorf("failed to purge tasks: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.logger.Info("Purged deleted tasks", zap.Int64("count", n))
	}
	return nil
}

// Close implements TaskStore.Close
func (s *SQLiteTaskStore) Close() error {
	return s.db.Close()
}

const selectColumns = `
	SELECT id, title, description, parent_id, project_id, is_project,
	       dependencies, status, expected_hours, actual_hours,
	       planned_start_date, expiration_date, deleted, assignee_id,
	       owner_id, member_ids, team, created_at, started_at, completed_at`

func (s *SQLiteTaskStore) list(ctx context.Context, query string, args ...interface{}) ([]*model.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return tasks, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row scanner) (*model.Task, error) {
	var task model.Task
	var description, parentID, projectID, deps, assigneeID, ownerID, members, teamJSON sql.NullString
	var plannedStart, expiration, startedAt, completedAt sql.NullTime
	var status string

	err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&parentID,
		&projectID,
		&task.IsProject,
		&deps,
		&status,
		&task.ExpectedHours,
		&task.ActualHours,
		&plannedStart,
		&expiration,
		&task.Deleted,
		&assigneeID,
		&ownerID,
		&members,
		&teamJSON,
		&task.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	task.Status = model.TaskStatus(status)
	task.Description = description.String
	task.ParentID = parentID.String
	task.ProjectID = projectID.String
	task.AssigneeID = assigneeID.String
	task.OwnerID = ownerID.String

	if deps.Valid && deps.String != "" {
		if err := json.Unmarshal([]byte(deps.String), &task.Dependencies); err != nil {
			return nil, fmt.Errorf("failed to decode dependencies: %w", err)
		}
	}
	if members.Valid && members.String != "" {
		if err := json.Unmarshal([]byte(members.String), &task.MemberIDs); err != nil {
			return nil, fmt.Errorf("failed to decode member ids: %w", err)
		}
	}
	if teamJSON.Valid && teamJSON.String != "" {
		if err := json.Unmarshal([]byte(teamJSON.String), &task.Team); err != nil {
			return nil, fmt.Errorf("failed to decode team: %w", err)
		}
	}
	if plannedStart.Valid {
		task.PlannedStartDate = &plannedStart.Time
	}
	if expiration.Valid {
		task.ExpirationDate = &expiration.Time
	}
	if startedAt.Valid {
		task.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}

	return &task, nil
}

func encodeSets(task *model.Task) (deps, members, teamJSON sql.NullString, err error) {
	if len(task.Dependencies) > 0 {
		b, merr := json.Marshal(task.Dependencies)
		if merr != nil {
			return deps, members, teamJSON, fmt.Errorf("failed to encode dependencies: %w", merr)
		}
		deps = sql.NullString{String: string(b), Valid: true}
	}
	if len(task.MemberIDs) > 0 {
		b, merr := json.Marshal(task.MemberIDs)
		if merr != nil {
			return deps, members, teamJSON, fmt.Errorf("failed to encode member ids: %w", merr)
		}
		members = sql.NullString{String: string(b), Valid: true}
	}
	if len(task.Team) > 0 {
		b, merr := json.Marshal(task.Team)
		if merr != nil {
			return deps, members, teamJSON, fmt.Errorf("failed to encode team: %w", merr)
		}
		teamJSON = sql.NullString{String: string(b), Valid: true}
	}
	return deps, members, teamJSON, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
