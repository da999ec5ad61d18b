package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentgate/agentgate/internal/domain/task"
	"github.com/agentgate/agentgate/internal/port/database"
)

// Store implements database.TaskStore using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const taskColumns = `id, seq, title, priority, description, status, reviewer_response, error, created_at, reviewed_at, executed_at`

// scanTask scans a row into a Task.
func scanTask(scanner interface{ Scan(dest ...any) error }, t *task.Task) error {
	return scanner.Scan(
		&t.ID, &t.Seq, &t.Title, &t.Priority, &t.Description, &t.Status,
		&t.ReviewerResponse, &t.Error, &t.CreatedAt, &t.ReviewedAt, &t.ExecutedAt,
	)
}

// CreateTask validates the request and inserts a new pending task.
func (s *Store) CreateTask(ctx context.Context, req task.CreateRequest) (*task.Task, error) {
	title, prio, err := req.Validate()
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO tasks (id, title, priority, description, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING %s`, taskColumns),
		uuid.NewString(), title, string(prio), req.Description, string(task.StatusPending))

	var t task.Task
	if err := scanTask(row, &t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &t, nil
}

// UpdateTaskStatus applies a status transition inside a transaction.
// The row is locked (SELECT ... FOR UPDATE) so the transition check, the
// write, and the reported previous status happen under one critical
// section per task.
func (s *Store) UpdateTaskStatus(ctx context.Context, id string, status task.Status, req database.UpdateStatusRequest) (task.Status, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", false, fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current task.Status
	err = tx.QueryRow(ctx, `SELECT status FROM tasks WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lock task %s: %w", id, err)
	}

	if current == status {
		return current, true, nil // no-op success
	}
	if !task.CanTransition(current, status) {
		return current, false, &task.TransitionError{TaskID: id, Current: current, Requested: status}
	}

	now := time.Now().UTC()
	var reviewedAt, executedAt *time.Time

	leavingReviewable := current == task.StatusPending || current == task.StatusReview
	towardReviewed := status == task.StatusApproved || status == task.StatusRejected || status == task.StatusReview
	if leavingReviewable && towardReviewed {
		reviewedAt = &now
	}
	if status == task.StatusExecuted {
		executedAt = &now
	}

	errText := ""
	if req.Error != "" && status == task.StatusFailed {
		errText = req.Error
	}

	_, err = tx.Exec(ctx,
		`UPDATE tasks SET
		    status = $2,
		    reviewer_response = CASE WHEN $3 <> '' THEN $3 ELSE reviewer_response END,
		    error = CASE
		        WHEN $4 <> '' THEN $4
		        WHEN $2 = 'approved' THEN ''
		        ELSE error
		    END,
		    reviewed_at = COALESCE($5, reviewed_at),
		    executed_at = COALESCE($6, executed_at)
		 WHERE id = $1`,
		id, string(status), req.ReviewerResponse, errText, reviewedAt, executedAt)
	if err != nil {
		return current, false, fmt.Errorf("update task %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return current, false, fmt.Errorf("commit transition: %w", err)
	}
	return current, true, nil
}

// GetTask returns the task, or nil when it does not exist.
func (s *Store) GetTask(ctx context.Context, id string) (*task.Task, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns), id)

	var t task.Task
	if err := scanTask(row, &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return &t, nil
}

// ListTasks returns tasks in creation order, oldest first.
func (s *Store) ListTasks(ctx context.Context, filter database.ListFilter) ([]task.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks`, taskColumns)
	args := []any{}
	if filter.Status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*filter.Status))
	}
	query += ` ORDER BY seq ASC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		var t task.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// TaskStats returns the count of tasks per status.
func (s *Store) TaskStats(ctx context.Context) (map[task.Status]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[task.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan task stat: %w", err)
		}
		stats[task.Status(status)] = count
	}
	return stats, rows.Err()
}
