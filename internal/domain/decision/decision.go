// Package decision defines the immutable PolicyDecision audit record.
// One record is created per policy evaluation and appended to the
// decision log; records are never mutated or deleted.
package decision

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies what kind of evaluation produced a decision.
type Type string

const (
	TypeGuardrailsInput  Type = "guardrails_input"
	TypeGuardrailsOutput Type = "guardrails_output"
	TypeToolCall         Type = "tool_call"
	TypeIngress          Type = "ingress"
	TypeHumanApproval    Type = "human_approval"
)

// Result is the outcome of a policy evaluation.
type Result string

const (
	ResultAllow           Result = "allow"
	ResultDeny            Result = "deny"
	ResultRequireApproval Result = "require_approval"
)

// Decision is one immutable policy evaluation outcome. It carries no
// ownership reference to the task or run that triggered it; correlation
// happens at read time via Context and ToolName.
type Decision struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	Type          Type           `json:"type"`
	Result        Result         `json:"result"`
	Reason        string         `json:"reason"`
	Context       map[string]any `json:"context,omitempty"`
	UserID        string         `json:"user_id,omitempty"`
	AgentID       string         `json:"agent_id,omitempty"`
	ToolName      string         `json:"tool_name,omitempty"`
	PolicyVersion string         `json:"policy_version,omitempty"`
	LatencyMS     int64          `json:"latency_ms,omitempty"`
}

// New creates a Decision with a fresh ID and a UTC timestamp.
func New(typ Type, result Result, reason string) Decision {
	return Decision{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      typ,
		Result:    result,
		Reason:    reason,
	}
}

// ValidType reports whether t is a known decision type.
func ValidType(t Type) bool {
	switch t {
	case TypeGuardrailsInput, TypeGuardrailsOutput, TypeToolCall, TypeIngress, TypeHumanApproval:
		return true
	}
	return false
}

// ValidResult reports whether r is a known decision result.
func ValidResult(r Result) bool {
	switch r {
	case ResultAllow, ResultDeny, ResultRequireApproval:
		return true
	}
	return false
}
