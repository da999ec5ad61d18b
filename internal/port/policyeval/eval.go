// Package policyeval defines the policy evaluator port. One interface,
// two constructed implementations: the embedded rule engine and the
// remote OPA-style HTTP evaluator.
package policyeval

import "context"

// Default package paths evaluators are queried with. They scope the
// evaluation to one rule family.
const (
	PackageToolCalls  = "agentgate/toolcalls"
	PackageGuardrails = "agentgate/guardrails"
	PackageIngress    = "agentgate/ingress"
)

// Result is the structured outcome of one policy evaluation.
type Result struct {
	Allow           bool     `json:"allow"`
	Deny            []string `json:"deny"`
	RequireApproval bool     `json:"require_approval"`
}

// Evaluator evaluates a structured input against the rules scoped by the
// given package path. Implementations may block briefly (the remote path
// performs a bounded network call); callers must treat both the same way
// and pass a context.
//
// Errors are infrastructure failures only — a policy "no" is reported
// through Result, never through the error return.
type Evaluator interface {
	Evaluate(ctx context.Context, pkg string, input any) (Result, error)
}
