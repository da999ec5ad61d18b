// Package ruleengine implements the policy evaluator port with the
// in-process rule engine. It evaluates tool calls against a loaded set
// of policy profiles without any network dependency.
package ruleengine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/agentgate/agentgate/internal/domain/policy"
	"github.com/agentgate/agentgate/internal/port/policyeval"
)

// Engine evaluates tool calls against a named policy profile. Built-in
// presets are always registered; custom profiles override presets with
// the same name.
type Engine struct {
	active   string
	profiles map[string]policy.Profile
}

// New creates an Engine with built-in presets plus the given custom
// profiles, evaluating against the profile named by active.
func New(active string, custom []policy.Profile) (*Engine, error) {
	profiles := make(map[string]policy.Profile)
	for _, name := range policy.PresetNames() {
		p, _ := policy.PresetByName(name)
		profiles[name] = p
	}
	for i := range custom {
		profiles[custom[i].Name] = custom[i]
	}

	if _, ok := profiles[active]; !ok {
		return nil, fmt.Errorf("unknown policy profile %q", active)
	}

	return &Engine{active: active, profiles: profiles}, nil
}

// Evaluate implements policyeval.Evaluator. The package path is accepted
// for call-site symmetry with the remote evaluator; the embedded engine
// scopes evaluation by the active profile instead.
func (e *Engine) Evaluate(_ context.Context, _ string, input any) (policyeval.Result, error) {
	call, err := coerceToolCall(input)
	if err != nil {
		return policyeval.Result{}, err
	}

	profile := e.profiles[e.active]
	ev := profile.Evaluate(call)

	switch ev.Verdict {
	case policy.VerdictAllow:
		return policyeval.Result{Allow: true}, nil
	case policy.VerdictAsk:
		return policyeval.Result{RequireApproval: true}, nil
	default:
		return policyeval.Result{Deny: ev.DenyReasons}, nil
	}
}

// ActiveProfile returns the profile evaluations run against.
func (e *Engine) ActiveProfile() string {
	return e.active
}

// ListProfiles returns all registered profile names, sorted.
func (e *Engine) ListProfiles() []string {
	names := make([]string, 0, len(e.profiles))
	for name := range e.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile returns a registered profile by name.
func (e *Engine) Profile(name string) (policy.Profile, bool) {
	p, ok := e.profiles[name]
	return p, ok
}

// coerceToolCall accepts either a policy.ToolCall or anything that
// marshals to its JSON shape.
func coerceToolCall(input any) (policy.ToolCall, error) {
	if call, ok := input.(policy.ToolCall); ok {
		return call, nil
	}
	data, err := json.Marshal(input)
	if err != nil {
		return policy.ToolCall{}, fmt.Errorf("marshal evaluator input: %w", err)
	}
	var call policy.ToolCall
	if err := json.Unmarshal(data, &call); err != nil {
		return policy.ToolCall{}, fmt.Errorf("unmarshal evaluator input: %w", err)
	}
	return call, nil
}
