// Package policy defines the rule model for the embedded policy engine.
// Profiles govern which tools agents may invoke and whether an invocation
// needs human approval before it runs.
package policy

// Verdict is the outcome a rule assigns to a matching tool call.
type Verdict string

const (
	VerdictAllow Verdict = "allow"
	VerdictDeny  Verdict = "deny"
	VerdictAsk   Verdict = "ask" // requires human approval
)

// Mode controls the baseline behavior when no rule matches.
type Mode string

const (
	ModeStrict     Mode = "strict"     // unmatched calls are denied
	ModeSupervised Mode = "supervised" // unmatched calls require approval
	ModeTrusting   Mode = "trusting"   // unmatched calls are allowed
)

// Rule maps a tool pattern (and optionally a set of agent types) to a
// Verdict. Patterns support glob-style wildcards, e.g. "db.*" or "*".
type Rule struct {
	Tool       string   `json:"tool" yaml:"tool"`
	AgentTypes []string `json:"agent_types,omitempty" yaml:"agent_types,omitempty"`
	Verdict    Verdict  `json:"verdict" yaml:"verdict"`
	Reason     string   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Profile is a named, ordered rule set evaluated first-match-wins.
type Profile struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Mode        Mode   `json:"mode" yaml:"mode"`
	Rules       []Rule `json:"rules" yaml:"rules"`
}

// ToolCall is a proposed tool invocation submitted for evaluation.
type ToolCall struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters,omitempty"`
	AgentType  string         `json:"agent_type,omitempty"`
	AgentID    string         `json:"agent_id,omitempty"`
}
