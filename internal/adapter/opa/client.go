// Package opa implements the policy evaluator port against a remote
// OPA-compatible policy service over its data API.
package opa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentgate/agentgate/internal/port/policyeval"
	"github.com/agentgate/agentgate/internal/resilience"
)

// Client evaluates policies by POSTing to <baseURL>/v1/data/<package>.
// Every failure — transport error, non-200 status, timeout — surfaces as
// an error; the calling layer decides fail-open vs fail-closed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a remote evaluator client. timeout bounds each
// evaluation call (the design default is 2 seconds).
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// evalRequest is the OPA data API request envelope.
type evalRequest struct {
	Input any `json:"input"`
}

// evalResponse is the OPA data API response envelope.
type evalResponse struct {
	Result policyeval.Result `json:"result"`
}

// Evaluate implements policyeval.Evaluator.
func (c *Client) Evaluate(ctx context.Context, pkg string, input any) (policyeval.Result, error) {
	body, err := json.Marshal(evalRequest{Input: input})
	if err != nil {
		return policyeval.Result{}, fmt.Errorf("marshal policy input: %w", err)
	}

	// OPA addresses packages by path: agentgate/toolcalls -> /v1/data/agentgate/toolcalls.
	url := c.baseURL + "/v1/data/" + strings.ReplaceAll(pkg, ".", "/")

	var result policyeval.Result
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("policy request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read policy response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("policy service status %d: %s", resp.StatusCode, string(data))
		}

		var parsed evalResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("unmarshal policy response: %w", err)
		}
		result = parsed.Result
		return nil
	}

	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return policyeval.Result{}, err
	}
	return result, nil
}
