package policy

import (
	"fmt"
	"path/filepath"
)

// Evaluation captures the full context of evaluating a ToolCall against
// a Profile, including which rule matched and why.
type Evaluation struct {
	Verdict     Verdict  `json:"verdict"`
	Profile     string   `json:"profile"`
	RuleIndex   int      `json:"rule_index"` // -1 when the mode default applied
	Reason      string   `json:"reason"`
	DenyReasons []string `json:"deny_reasons,omitempty"`
}

// Evaluate checks a ToolCall against the profile's rules first-match-wins.
// When no rule matches, the profile mode decides the fallback verdict.
func (p *Profile) Evaluate(call ToolCall) Evaluation {
	for i := range p.Rules {
		rule := &p.Rules[i]
		if !matchPattern(rule.Tool, call.Tool) {
			continue
		}
		if !matchAgentType(rule.AgentTypes, call.AgentType) {
			continue
		}
		ev := Evaluation{
			Verdict:   rule.Verdict,
			Profile:   p.Name,
			RuleIndex: i,
			Reason:    rule.Reason,
		}
		if ev.Reason == "" {
			ev.Reason = fmt.Sprintf("matched rule[%d]: tool=%q verdict=%s", i, rule.Tool, rule.Verdict)
		}
		if rule.Verdict == VerdictDeny {
			ev.DenyReasons = []string{ev.Reason}
		}
		return ev
	}

	verdict := defaultVerdictForMode(p.Mode)
	ev := Evaluation{
		Verdict:   verdict,
		Profile:   p.Name,
		RuleIndex: -1,
		Reason:    fmt.Sprintf("no matching rule; %s mode default is %s", p.Mode, verdict),
	}
	if verdict == VerdictDeny {
		ev.DenyReasons = []string{ev.Reason}
	}
	return ev
}

// matchPattern checks a tool name against a glob-style pattern.
//   - "*" matches everything
//   - "db.*" matches "db.query" and "db.delete_user"
//   - "db.query" matches exactly
func matchPattern(pattern, name string) bool {
	if pattern == name {
		return true
	}
	matched, err := filepath.Match(pattern, name)
	return err == nil && matched
}

// matchAgentType checks the rule's agent type restriction. An empty list
// matches every agent type.
func matchAgentType(types []string, agentType string) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == agentType {
			return true
		}
	}
	return false
}

// defaultVerdictForMode returns the fallback verdict when no rule matches.
func defaultVerdictForMode(mode Mode) Verdict {
	switch mode {
	case ModeTrusting:
		return VerdictAllow
	case ModeSupervised:
		return VerdictAsk
	case ModeStrict:
		return VerdictDeny
	default:
		return VerdictAsk
	}
}
