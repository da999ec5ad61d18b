package policy

// PresetReadOnly returns the "read-only" preset: observation tools only,
// every mutating call denied.
func PresetReadOnly() Profile {
	return Profile{
		Name:        "read-only",
		Description: "Observation only. Reads allowed, all mutations denied.",
		Version:     "builtin-1",
		Mode:        ModeStrict,
		Rules: []Rule{
			{Tool: "read_*", Verdict: VerdictAllow},
			{Tool: "list_*", Verdict: VerdictAllow},
			{Tool: "search_*", Verdict: VerdictAllow},
			{Tool: "get_*", Verdict: VerdictAllow},
		},
	}
}

// PresetSupervised returns the "supervised" preset: reads pass, destructive
// tools are denied outright, everything else is routed to a human.
func PresetSupervised() Profile {
	return Profile{
		Name:        "supervised",
		Description: "Reads allowed, destructive tools denied, the rest needs human approval.",
		Version:     "builtin-1",
		Mode:        ModeSupervised,
		Rules: []Rule{
			{Tool: "read_*", Verdict: VerdictAllow},
			{Tool: "list_*", Verdict: VerdictAllow},
			{Tool: "search_*", Verdict: VerdictAllow},
			{Tool: "get_*", Verdict: VerdictAllow},
			{Tool: "delete_*", Verdict: VerdictDeny, Reason: "destructive tools are disabled under the supervised profile"},
			{Tool: "drop_*", Verdict: VerdictDeny, Reason: "destructive tools are disabled under the supervised profile"},
			{Tool: "send_email", Verdict: VerdictAsk, Reason: "outbound communication requires human approval"},
			{Tool: "execute_payment", Verdict: VerdictAsk, Reason: "financial operations require human approval"},
		},
	}
}

// PresetUnrestricted returns the "unrestricted" preset for trusted
// internal agents. Everything is allowed; the decision log still records
// every call.
func PresetUnrestricted() Profile {
	return Profile{
		Name:        "unrestricted",
		Description: "All tool calls allowed. Intended for trusted internal agents only.",
		Version:     "builtin-1",
		Mode:        ModeTrusting,
		Rules:       []Rule{},
	}
}

// PresetNames returns the names of all built-in presets.
func PresetNames() []string {
	return []string{"read-only", "supervised", "unrestricted"}
}

// PresetByName returns a built-in preset by name.
func PresetByName(name string) (Profile, bool) {
	switch name {
	case "read-only":
		return PresetReadOnly(), true
	case "supervised":
		return PresetSupervised(), true
	case "unrestricted":
		return PresetUnrestricted(), true
	}
	return Profile{}, false
}
