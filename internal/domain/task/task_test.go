package task

import (
	"errors"
	"strings"
	"testing"

	"github.com/agentgate/agentgate/internal/domain"
)

func TestCanTransitionFullTable(t *testing.T) {
	all := []Status{StatusPending, StatusApproved, StatusRejected, StatusReview, StatusExecuted, StatusFailed}

	allowed := map[Status]map[Status]bool{
		StatusPending:  {StatusApproved: true, StatusRejected: true, StatusReview: true},
		StatusApproved: {StatusExecuted: true, StatusFailed: true},
		StatusReview:   {StatusApproved: true, StatusRejected: true},
		StatusRejected: {},
		StatusExecuted: {},
		StatusFailed:   {StatusApproved: true},
	}

	for _, from := range all {
		for _, to := range all {
			want := from == to || allowed[from][to]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusPending, false},
		{StatusApproved, false},
		{StatusReview, false},
		{StatusFailed, false},
		{StatusRejected, true},
		{StatusExecuted, true},
	}
	for _, tt := range tests {
		if got := IsTerminal(tt.status); got != tt.terminal {
			t.Errorf("IsTerminal(%s) = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestAllowedFromSorted(t *testing.T) {
	got := AllowedFrom(StatusPending)
	want := []Status{StatusApproved, StatusRejected, StatusReview}
	if len(got) != len(want) {
		t.Fatalf("AllowedFrom(pending) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("AllowedFrom(pending) = %v, want %v", got, want)
		}
	}
}

func TestTransitionErrorMessage(t *testing.T) {
	err := &TransitionError{TaskID: "t-1", Current: StatusPending, Requested: StatusExecuted}
	msg := err.Error()
	want := "task t-1: invalid transition pending -> executed (allowed: approved, rejected, review)"
	if msg != want {
		t.Errorf("got %q, want %q", msg, want)
	}
}

func TestTransitionErrorTerminal(t *testing.T) {
	err := &TransitionError{TaskID: "t-2", Current: StatusExecuted, Requested: StatusPending}
	if !strings.Contains(err.Error(), "none (terminal)") {
		t.Errorf("terminal state error should mention none (terminal), got %q", err.Error())
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected, StatusReview, StatusExecuted, StatusFailed} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%s) = false", s)
		}
	}
	if ValidStatus("done") {
		t.Error("ValidStatus(done) = true, want false")
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"high", PriorityHigh, false},
		{"HIGH", PriorityHigh, false},
		{" Medium ", PriorityMedium, false},
		{"low", PriorityLow, false},
		{"urgent", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePriority(%q): expected error", tt.in)
			} else if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("ParsePriority(%q): error should wrap ErrValidation, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePriority(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePriority(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestCreateRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		errPart string
	}{
		{
			name: "valid",
			req:  CreateRequest{Title: "deploy service", Priority: "high"},
		},
		{
			name: "title at limit",
			req:  CreateRequest{Title: strings.Repeat("a", MaxTitleLen), Priority: "low"},
		},
		{
			name:    "title over limit",
			req:     CreateRequest{Title: strings.Repeat("a", MaxTitleLen+1), Priority: "low"},
			errPart: "title",
		},
		{
			// Limits count characters, not bytes: 500 two-byte runes fit.
			name: "multibyte title at limit",
			req:  CreateRequest{Title: strings.Repeat("é", MaxTitleLen), Priority: "high"},
		},
		{
			name:    "multibyte title over limit",
			req:     CreateRequest{Title: strings.Repeat("é", MaxTitleLen+1), Priority: "high"},
			errPart: "title: length 501",
		},
		{
			name:    "empty title",
			req:     CreateRequest{Title: "   ", Priority: "low"},
			errPart: "title",
		},
		{
			name: "description at limit",
			req:  CreateRequest{Title: "t", Priority: "low", Description: strings.Repeat("d", MaxDescriptionLen)},
		},
		{
			name:    "description over limit",
			req:     CreateRequest{Title: "t", Priority: "low", Description: strings.Repeat("d", MaxDescriptionLen+1)},
			errPart: "description",
		},
		{
			name: "multibyte description at limit",
			req:  CreateRequest{Title: "t", Priority: "low", Description: strings.Repeat("ü", MaxDescriptionLen)},
		},
		{
			name:    "multibyte description over limit",
			req:     CreateRequest{Title: "t", Priority: "low", Description: strings.Repeat("ü", MaxDescriptionLen+1)},
			errPart: "description: length 10001",
		},
		{
			name:    "bad priority",
			req:     CreateRequest{Title: "t", Priority: "asap"},
			errPart: "priority",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, prio, err := tt.req.Validate()
			if tt.errPart != "" {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, domain.ErrValidation) {
					t.Errorf("error should wrap ErrValidation, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.errPart) {
					t.Errorf("error %q should name field %q", err.Error(), tt.errPart)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if title == "" || prio == "" {
				t.Errorf("got title=%q prio=%q", title, prio)
			}
		})
	}
}

func TestValidateTrimsTitle(t *testing.T) {
	title, _, err := CreateRequest{Title: "  fix bug  ", Priority: "medium"}.Validate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title != "fix bug" {
		t.Errorf("title = %q, want %q", title, "fix bug")
	}
}

func TestCloneIndependence(t *testing.T) {
	orig := &Task{ID: "t-1", Status: StatusReview}
	now := orig.CreatedAt
	orig.ReviewedAt = &now

	c := orig.Clone()
	*c.ReviewedAt = now.Add(1)
	c.Status = StatusApproved

	if orig.Status != StatusReview {
		t.Error("clone mutated original status")
	}
	if !orig.ReviewedAt.Equal(now) {
		t.Error("clone shares ReviewedAt pointer with original")
	}
}
