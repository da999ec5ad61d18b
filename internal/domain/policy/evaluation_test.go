package policy

import "testing"

func TestEvaluateFirstMatchWins(t *testing.T) {
	p := Profile{
		Name: "test",
		Mode: ModeStrict,
		Rules: []Rule{
			{Tool: "db.*", Verdict: VerdictDeny, Reason: "no direct db access"},
			{Tool: "db.query", Verdict: VerdictAllow},
		},
	}

	ev := p.Evaluate(ToolCall{Tool: "db.query"})
	if ev.Verdict != VerdictDeny {
		t.Errorf("verdict = %s, want deny (earlier rule wins)", ev.Verdict)
	}
	if ev.RuleIndex != 0 {
		t.Errorf("rule index = %d, want 0", ev.RuleIndex)
	}
	if len(ev.DenyReasons) != 1 || ev.DenyReasons[0] != "no direct db access" {
		t.Errorf("deny reasons = %v", ev.DenyReasons)
	}
}

func TestEvaluateGlobPatterns(t *testing.T) {
	p := Profile{
		Name: "test",
		Mode: ModeStrict,
		Rules: []Rule{
			{Tool: "read_*", Verdict: VerdictAllow},
			{Tool: "*", Verdict: VerdictAsk},
		},
	}

	tests := []struct {
		tool string
		want Verdict
	}{
		{"read_file", VerdictAllow},
		{"read_database_row", VerdictAllow},
		{"write_file", VerdictAsk},
		{"read", VerdictAsk}, // no underscore, does not match read_*
	}
	for _, tt := range tests {
		if ev := p.Evaluate(ToolCall{Tool: tt.tool}); ev.Verdict != tt.want {
			t.Errorf("Evaluate(%s) = %s, want %s", tt.tool, ev.Verdict, tt.want)
		}
	}
}

func TestEvaluateAgentTypeRestriction(t *testing.T) {
	p := Profile{
		Name: "test",
		Mode: ModeStrict,
		Rules: []Rule{
			{Tool: "deploy", AgentTypes: []string{"ops"}, Verdict: VerdictAllow},
		},
	}

	if ev := p.Evaluate(ToolCall{Tool: "deploy", AgentType: "ops"}); ev.Verdict != VerdictAllow {
		t.Errorf("ops agent: verdict = %s, want allow", ev.Verdict)
	}
	if ev := p.Evaluate(ToolCall{Tool: "deploy", AgentType: "research"}); ev.Verdict != VerdictDeny {
		t.Errorf("research agent: verdict = %s, want deny (strict default)", ev.Verdict)
	}
}

func TestEvaluateModeDefaults(t *testing.T) {
	tests := []struct {
		mode Mode
		want Verdict
	}{
		{ModeStrict, VerdictDeny},
		{ModeSupervised, VerdictAsk},
		{ModeTrusting, VerdictAllow},
	}
	for _, tt := range tests {
		p := Profile{Name: "test", Mode: tt.mode}
		ev := p.Evaluate(ToolCall{Tool: "anything"})
		if ev.Verdict != tt.want {
			t.Errorf("mode %s default = %s, want %s", tt.mode, ev.Verdict, tt.want)
		}
		if ev.RuleIndex != -1 {
			t.Errorf("mode %s default rule index = %d, want -1", tt.mode, ev.RuleIndex)
		}
	}
}

func TestEvaluateDefaultDenyHasReason(t *testing.T) {
	p := Profile{Name: "test", Mode: ModeStrict}
	ev := p.Evaluate(ToolCall{Tool: "launch_rocket"})
	if len(ev.DenyReasons) != 1 {
		t.Fatalf("deny reasons = %v, want exactly one", ev.DenyReasons)
	}
}
