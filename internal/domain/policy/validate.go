package policy

import "fmt"

// Validate checks that a Profile is well-formed.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("policy: name is required")
	}
	if !isValidMode(p.Mode) {
		return fmt.Errorf("policy: invalid mode %q", p.Mode)
	}
	for i := range p.Rules {
		if err := p.Rules[i].Validate(); err != nil {
			return fmt.Errorf("policy: rule[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate checks that a Rule is well-formed.
func (r *Rule) Validate() error {
	if r.Tool == "" {
		return fmt.Errorf("tool is required")
	}
	if !isValidVerdict(r.Verdict) {
		return fmt.Errorf("invalid verdict %q", r.Verdict)
	}
	return nil
}

func isValidMode(m Mode) bool {
	switch m {
	case ModeStrict, ModeSupervised, ModeTrusting:
		return true
	}
	return false
}

func isValidVerdict(v Verdict) bool {
	switch v {
	case VerdictAllow, VerdictDeny, VerdictAsk:
		return true
	}
	return false
}
