// Package service contains the application services that tie the policy
// evaluator, the decision log and the task store together.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentgate/agentgate/internal/domain/decision"
	"github.com/agentgate/agentgate/internal/domain/policy"
	"github.com/agentgate/agentgate/internal/port/decisionlog"
	"github.com/agentgate/agentgate/internal/port/messagequeue"
	"github.com/agentgate/agentgate/internal/port/observe"
	"github.com/agentgate/agentgate/internal/port/policyeval"
)

// Verdict is the outcome of validating one tool invocation.
type Verdict struct {
	Allowed          bool   `json:"allowed"`
	Reason           string `json:"reason"`
	RequiresApproval bool   `json:"requires_approval"`
}

// ValidatorService gates tool calls through the policy evaluator and
// records every outcome in the decision log.
type ValidatorService struct {
	evaluator policyeval.Evaluator // nil means policy checking is disabled
	log       decisionlog.Log
	monitor   observe.Monitor
	queue     messagequeue.Queue // optional, best-effort event emission
	failOpen  bool
}

// NewValidatorService creates a ValidatorService. A nil evaluator puts
// the validator in disabled mode: every call is allowed and nothing is
// evaluated or logged. queue may be nil.
func NewValidatorService(evaluator policyeval.Evaluator, log decisionlog.Log, monitor observe.Monitor, queue messagequeue.Queue, failOpen bool) *ValidatorService {
	if monitor == nil {
		monitor = observe.Nop{}
	}
	return &ValidatorService{
		evaluator: evaluator,
		log:       log,
		monitor:   monitor,
		queue:     queue,
		failOpen:  failOpen,
	}
}

// Validate evaluates one proposed tool invocation. It never returns an
// error: evaluator failures degrade to the configured fail-open (or
// fail-closed) verdict, and a decision-log append failure is reported to
// the monitor without disturbing the already-decided outcome.
func (s *ValidatorService) Validate(ctx context.Context, toolName string, params map[string]any, agentType, agentID string) Verdict {
	if s.evaluator == nil {
		slog.Debug("policy checking disabled, allowing tool call", "tool", toolName)
		return Verdict{Allowed: true, Reason: "policy evaluator unavailable", RequiresApproval: false}
	}

	start := time.Now()
	input := policy.ToolCall{
		Tool:       toolName,
		Parameters: params,
		AgentType:  agentType,
		AgentID:    agentID,
	}

	result, err := s.evaluator.Evaluate(ctx, policyeval.PackageToolCalls, input)
	latencyMS := time.Since(start).Milliseconds()
	s.monitor.RecordLatency(ctx, "policy.evaluate", latencyMS)

	var verdict Verdict
	if err != nil {
		// Availability over strict enforcement: the evaluator being down
		// must not strand the agent. The monitor makes the degradation
		// observable so operators can alert on it.
		s.monitor.RecordError(ctx, "policy_fail_open", err)
		verdict = Verdict{
			Allowed:          s.failOpen,
			RequiresApproval: false,
		}
		mode := "fail-open"
		if !s.failOpen {
			mode = "fail-closed"
		}
		verdict.Reason = fmt.Sprintf("policy evaluator unavailable (%s): %v", mode, err)
	} else {
		verdict = Verdict{
			Allowed:          result.Allow,
			RequiresApproval: result.RequireApproval,
		}
		switch {
		case len(result.Deny) > 0:
			verdict.Reason = result.Deny[0]
		case verdict.Allowed:
			verdict.Reason = "Allowed"
		default:
			verdict.Reason = "Denied"
		}
	}

	s.record(ctx, toolName, agentType, agentID, params, verdict, latencyMS)
	return verdict
}

// record appends the decision for one completed evaluation. Failures
// here never surface as a validation rejection.
func (s *ValidatorService) record(ctx context.Context, toolName, agentType, agentID string, params map[string]any, v Verdict, latencyMS int64) {
	// require_approval wins over allow/deny in the result mapping.
	result := decision.ResultDeny
	switch {
	case v.RequiresApproval:
		result = decision.ResultRequireApproval
	case v.Allowed:
		result = decision.ResultAllow
	}

	d := decision.New(decision.TypeToolCall, result, v.Reason)
	d.ToolName = toolName
	d.AgentID = agentID
	d.LatencyMS = latencyMS
	d.Context = map[string]any{
		"agent_type": agentType,
	}
	if len(params) > 0 {
		d.Context["parameters"] = params
	}

	if err := s.log.Append(ctx, d); err != nil {
		s.monitor.RecordError(ctx, "decision_log_append", err)
		return
	}

	if s.queue != nil {
		payload, err := json.Marshal(messagequeue.DecisionRecordedPayload{
			DecisionID: d.ID,
			Type:       string(d.Type),
			Result:     string(d.Result),
			ToolName:   d.ToolName,
			AgentID:    d.AgentID,
		})
		if err == nil {
			if err := s.queue.Publish(ctx, messagequeue.SubjectDecisionRecorded, payload); err != nil {
				slog.Warn("failed to publish decision event", "decision_id", d.ID, "error", err)
			}
		}
	}
}
