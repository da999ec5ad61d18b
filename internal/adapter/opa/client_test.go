package opa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agentgate/agentgate/internal/port/policyeval"
	"github.com/agentgate/agentgate/internal/resilience"
)

func TestEvaluateSuccess(t *testing.T) {
	var gotPath string
	var gotInput map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var envelope struct {
			Input map[string]any `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotInput = envelope.Input

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"allow":false,"deny":["forbidden resource"],"require_approval":false}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	result, err := c.Evaluate(context.Background(), policyeval.PackageToolCalls, map[string]any{"tool": "delete_user"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/v1/data/agentgate/toolcalls" {
		t.Errorf("path = %q", gotPath)
	}
	if gotInput["tool"] != "delete_user" {
		t.Errorf("input = %v", gotInput)
	}
	if result.Allow {
		t.Error("result should be deny")
	}
	if len(result.Deny) != 1 || result.Deny[0] != "forbidden resource" {
		t.Errorf("deny = %v", result.Deny)
	}
}

func TestEvaluateDottedPackagePath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"result":{"allow":true}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if _, err := c.Evaluate(context.Background(), "agentgate.ingress", nil); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/v1/data/agentgate/ingress" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestEvaluateNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if _, err := c.Evaluate(context.Background(), policyeval.PackageToolCalls, nil); err == nil {
		t.Error("expected error on 500 response")
	}
}

func TestEvaluateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"result":{"allow":true}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20*time.Millisecond)
	if _, err := c.Evaluate(context.Background(), policyeval.PackageToolCalls, nil); err == nil {
		t.Error("expected timeout error")
	}
}

func TestEvaluateBreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	c.SetBreaker(resilience.NewBreaker(2, time.Minute))
	ctx := context.Background()

	for range 2 {
		if _, err := c.Evaluate(ctx, policyeval.PackageToolCalls, nil); err == nil {
			t.Fatal("expected error while service is down")
		}
	}

	// The breaker is now open; calls fail fast without hitting the server.
	_, err := c.Evaluate(ctx, policyeval.PackageToolCalls, nil)
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
}
