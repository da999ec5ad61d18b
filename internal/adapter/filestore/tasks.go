package filestore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agentgate/agentgate/internal/domain/task"
	"github.com/agentgate/agentgate/internal/port/database"
)

// CreateTask validates the request and persists a new pending task.
// The snapshot write completes before the task is acknowledged.
func (s *Store) CreateTask(_ context.Context, req task.CreateRequest) (*task.Task, error) {
	title, prio, err := req.Validate()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &task.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Priority:    prio,
		Description: req.Description,
		Status:      task.StatusPending,
		Seq:         s.seq,
		CreatedAt:   time.Now().UTC(),
	}

	s.tasks[t.ID] = t
	s.order = append(s.order, t.ID)

	if err := s.persistTasks(); err != nil {
		delete(s.tasks, t.ID)
		s.order = s.order[:len(s.order)-1]
		return nil, err
	}

	snapshot := t.Clone()
	return &snapshot, nil
}

// UpdateTaskStatus applies a status transition under the store lock, so
// the transition check, the write, and the reported previous status are
// one critical section.
func (s *Store) UpdateTaskStatus(_ context.Context, id string, status task.Status, req database.UpdateStatusRequest) (task.Status, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return "", false, nil
	}

	from := t.Status
	if from == status {
		return from, true, nil // no-op success, nothing to persist
	}
	if !task.CanTransition(from, status) {
		return from, false, &task.TransitionError{TaskID: id, Current: from, Requested: status}
	}

	prev := *t
	now := time.Now().UTC()

	applyTransition(t, status, now)
	if req.ReviewerResponse != "" {
		t.ReviewerResponse = req.ReviewerResponse
	}
	if req.Error != "" && status == task.StatusFailed {
		t.Error = req.Error
	}

	if err := s.persistTasks(); err != nil {
		*t = prev
		return from, false, err
	}
	return from, true, nil
}

// applyTransition sets the status and the lifecycle timestamps.
func applyTransition(t *task.Task, status task.Status, now time.Time) {
	from := t.Status
	t.Status = status

	leavingReviewable := from == task.StatusPending || from == task.StatusReview
	towardReviewed := status == task.StatusApproved || status == task.StatusRejected || status == task.StatusReview
	if leavingReviewable && towardReviewed {
		ts := now
		t.ReviewedAt = &ts
	}
	if status == task.StatusExecuted {
		ts := now
		t.ExecutedAt = &ts
	}
	if status == task.StatusApproved {
		// Retry path clears the failure note; the decision log keeps history.
		t.Error = ""
	}
}

// GetTask returns a snapshot of the task, or nil when it does not exist.
func (s *Store) GetTask(_ context.Context, id string) (*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	snapshot := t.Clone()
	return &snapshot, nil
}

// ListTasks returns task snapshots in creation order, oldest first.
func (s *Store) ListTasks(_ context.Context, filter database.ListFilter) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]task.Task, 0, len(s.order))
	for _, id := range s.order {
		t := s.tasks[id]
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, t.Clone())
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// TaskStats returns the count of tasks per status.
func (s *Store) TaskStats(_ context.Context) (map[task.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[task.Status]int)
	for _, t := range s.tasks {
		stats[t.Status]++
	}
	return stats, nil
}
