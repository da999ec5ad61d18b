// Package decisionlog defines the port interface for the append-only
// policy decision log.
package decisionlog

import (
	"context"
	"time"

	"github.com/agentgate/agentgate/internal/domain/decision"
)

// Filter narrows Query results. Zero values match everything.
type Filter struct {
	Type     decision.Type   `json:"type,omitempty"`
	Result   decision.Result `json:"result,omitempty"`
	ToolName string          `json:"tool_name,omitempty"`
	After    *time.Time      `json:"after,omitempty"`
	Before   *time.Time      `json:"before,omitempty"`
}

// Summary aggregates decision counts per type and result.
type Summary map[decision.Type]map[decision.Result]int

// Log is the port interface for recording and querying policy decisions.
//
// Append must be safe for concurrent use and must preserve completion
// order; readers never observe partial records.
type Log interface {
	// Append durably records a decision.
	Append(ctx context.Context, d decision.Decision) error

	// Query returns decisions in append order, oldest first.
	// limit <= 0 means no limit.
	Query(ctx context.Context, filter Filter, limit int) ([]decision.Decision, error)

	// Summarize counts decisions per type and result over the optional
	// window. A nil window covers the whole log.
	Summarize(ctx context.Context, since *time.Time) (Summary, error)
}
