// Package task defines the Task domain entity and its status state machine.
package task

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agentgate/agentgate/internal/domain"
)

// Status represents the current state of a task.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusReview   Status = "review"
	StatusExecuted Status = "executed"
	StatusFailed   Status = "failed"
)

// Priority determines how urgently a task should be reviewed.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Field limits enforced on task creation.
const (
	MaxTitleLen       = 500
	MaxDescriptionLen = 10000
)

// transitions maps each status to the set of statuses it may move to.
// Rejected and executed are terminal. A failed task may be retried by
// moving it back to approved.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusReview},
	StatusApproved: {StatusExecuted, StatusFailed},
	StatusReview:   {StatusApproved, StatusRejected},
	StatusRejected: {},
	StatusExecuted: {},
	StatusFailed:   {StatusApproved},
}

// Task represents a unit of work proposed by a planning stage and tracked
// through a fixed review/execution lifecycle. The store owns the canonical
// copy; callers receive snapshots.
type Task struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Priority         Priority   `json:"priority"`
	Description      string     `json:"description,omitempty"`
	Status           Status     `json:"status"`
	ReviewerResponse string     `json:"reviewer_response,omitempty"`
	Error            string     `json:"error,omitempty"`
	Seq              int64      `json:"seq"`
	CreatedAt        time.Time  `json:"created_at"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	ExecutedAt       *time.Time `json:"executed_at,omitempty"`
}

// CreateRequest holds the fields needed to create a new task.
type CreateRequest struct {
	Title       string `json:"title"`
	Priority    string `json:"priority"`
	Description string `json:"description,omitempty"`
}

// TransitionError reports an attempted status change that the state
// machine does not permit.
type TransitionError struct {
	TaskID    string
	Current   Status
	Requested Status
}

func (e *TransitionError) Error() string {
	allowed := AllowedFrom(e.Current)
	rendered := "none (terminal)"
	if len(allowed) > 0 {
		parts := make([]string, len(allowed))
		for i, s := range allowed {
			parts[i] = string(s)
		}
		rendered = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("task %s: invalid transition %s -> %s (allowed: %s)",
		e.TaskID, e.Current, e.Requested, rendered)
}

// AllowedFrom returns the statuses reachable from the given status,
// sorted for stable rendering. Self-transitions are not listed; they are
// always a no-op success.
func AllowedFrom(from Status) []Status {
	allowed := append([]Status(nil), transitions[from]...)
	sort.Slice(allowed, func(i, j int) bool { return allowed[i] < allowed[j] })
	return allowed
}

// CanTransition reports whether a task in status from may move to status to.
// from == to is always permitted (treated as a no-op by the store).
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// ValidStatus reports whether s is a known task status.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// ParsePriority converts a case-insensitive string into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh, nil
	case PriorityMedium:
		return PriorityMedium, nil
	case PriorityLow:
		return PriorityLow, nil
	}
	return "", fmt.Errorf("%w: priority: %q is not one of high, medium, low", domain.ErrValidation, s)
}

// Validate checks a CreateRequest and returns the normalized title and
// parsed priority. Errors wrap domain.ErrValidation and name the field.
func (r CreateRequest) Validate() (title string, prio Priority, err error) {
	title = strings.TrimSpace(r.Title)
	if title == "" {
		return "", "", fmt.Errorf("%w: title: must not be empty", domain.ErrValidation)
	}
	// Limits are in characters, not bytes.
	if n := utf8.RuneCountInString(title); n > MaxTitleLen {
		return "", "", fmt.Errorf("%w: title: length %d exceeds maximum of %d characters",
			domain.ErrValidation, n, MaxTitleLen)
	}
	if n := utf8.RuneCountInString(r.Description); n > MaxDescriptionLen {
		return "", "", fmt.Errorf("%w: description: length %d exceeds maximum of %d characters",
			domain.ErrValidation, n, MaxDescriptionLen)
	}
	prio, err = ParsePriority(r.Priority)
	if err != nil {
		return "", "", err
	}
	return title, prio, nil
}

// Clone returns a deep copy of the task, safe to hand to callers while
// the original remains under the store's lock.
func (t *Task) Clone() Task {
	c := *t
	if t.ReviewedAt != nil {
		ts := *t.ReviewedAt
		c.ReviewedAt = &ts
	}
	if t.ExecutedAt != nil {
		ts := *t.ExecutedAt
		c.ExecutedAt = &ts
	}
	return c
}
