// Package database defines the task store port (interface).
package database

import (
	"context"

	"github.com/agentgate/agentgate/internal/domain/task"
)

// UpdateStatusRequest carries the optional fields that may accompany a
// status transition.
type UpdateStatusRequest struct {
	ReviewerResponse string `json:"reviewer_response,omitempty"`
	Error            string `json:"error,omitempty"`
}

// ListFilter narrows ListTasks results. A nil Status means all statuses;
// Limit <= 0 means no limit.
type ListFilter struct {
	Status *task.Status
	Limit  int
}

// TaskStore is the port interface for the durable task collection.
//
// Implementations must enforce the status state machine on every
// transition: the transition check and the status write happen under one
// critical section per task, and a successful transition is durably
// persisted before the call returns.
type TaskStore interface {
	// CreateTask validates the request, persists a new pending task and
	// returns its snapshot. Validation failures wrap domain.ErrValidation.
	CreateTask(ctx context.Context, req task.CreateRequest) (*task.Task, error)

	// UpdateTaskStatus applies a status transition and reports the task's
	// status before the call, read inside the same critical section as the
	// write. It returns ("", false, nil) when the task does not exist,
	// a *task.TransitionError when the state machine forbids the move, and
	// (prev, true, nil) on success. A transition to the current status is a
	// no-op success with prev == status.
	UpdateTaskStatus(ctx context.Context, id string, status task.Status, req UpdateStatusRequest) (task.Status, bool, error)

	// GetTask returns a snapshot of the task, or nil when it does not exist.
	GetTask(ctx context.Context, id string) (*task.Task, error)

	// ListTasks returns task snapshots in creation order, oldest first.
	ListTasks(ctx context.Context, filter ListFilter) ([]task.Task, error)

	// TaskStats returns the count of tasks per status.
	TaskStats(ctx context.Context) (map[task.Status]int, error)
}
