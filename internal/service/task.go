package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/agentgate/agentgate/internal/domain/task"
	"github.com/agentgate/agentgate/internal/port/database"
	"github.com/agentgate/agentgate/internal/port/messagequeue"
)

// TaskService handles task lifecycle logic: it fronts the store, which
// enforces the state machine, and emits events on changes. queue may be
// nil, in which case events are skipped.
type TaskService struct {
	store database.TaskStore
	queue messagequeue.Queue
}

// NewTaskService creates a new TaskService.
func NewTaskService(store database.TaskStore, queue messagequeue.Queue) *TaskService {
	return &TaskService{store: store, queue: queue}
}

// Create validates and persists a new pending task, then announces it.
func (s *TaskService) Create(ctx context.Context, req task.CreateRequest) (*task.Task, error) {
	t, err := s.store.CreateTask(ctx, req)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, messagequeue.SubjectTaskCreated, messagequeue.TaskCreatedPayload{
		TaskID:   t.ID,
		Title:    t.Title,
		Priority: string(t.Priority),
	})
	return t, nil
}

// UpdateStatus applies a status transition. It returns (false, nil) for
// an unknown task and a *task.TransitionError for a forbidden move; the
// store performs the check and the write in one critical section and
// reports the previous status, so the emitted event never carries a
// stale from-status.
func (s *TaskService) UpdateStatus(ctx context.Context, id string, status task.Status, req database.UpdateStatusRequest) (bool, error) {
	prev, ok, err := s.store.UpdateTaskStatus(ctx, id, status, req)
	if !ok || err != nil {
		return ok, err
	}

	if prev != status {
		s.publish(ctx, messagequeue.SubjectTaskStatus, messagequeue.TaskStatusPayload{
			TaskID:     id,
			FromStatus: string(prev),
			ToStatus:   string(status),
		})
	}
	return true, nil
}

// Get returns a task snapshot, or nil when the task does not exist.
func (s *TaskService) Get(ctx context.Context, id string) (*task.Task, error) {
	return s.store.GetTask(ctx, id)
}

// List returns tasks in creation order with optional filtering.
func (s *TaskService) List(ctx context.Context, filter database.ListFilter) ([]task.Task, error) {
	return s.store.ListTasks(ctx, filter)
}

// Stats returns the count of tasks per status.
func (s *TaskService) Stats(ctx context.Context) (map[task.Status]int, error) {
	return s.store.TaskStats(ctx)
}

// publish emits an event best-effort. The task is already persisted, so
// a failed publish is logged and swallowed.
func (s *TaskService) publish(ctx context.Context, subject string, payload any) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal event payload", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Error("failed to publish event", "subject", subject, "error", err)
	}
}
