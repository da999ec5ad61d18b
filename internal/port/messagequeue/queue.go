// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Close shuts down the queue connection.
	Close() error
}

// Subject constants for the events AgentGate emits.
const (
	SubjectTaskCreated      = "tasks.created"  // a planning stage proposed a new task
	SubjectTaskStatus       = "tasks.status"   // a task moved through the state machine
	SubjectDecisionRecorded = "decisions.tool" // a tool-call policy decision was logged
)
