// Package http provides the thin HTTP surface over the core services.
package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/agentgate/agentgate/internal/adapter/ruleengine"
	"github.com/agentgate/agentgate/internal/domain/decision"
	"github.com/agentgate/agentgate/internal/domain/task"
	"github.com/agentgate/agentgate/internal/port/database"
	"github.com/agentgate/agentgate/internal/port/decisionlog"
	"github.com/agentgate/agentgate/internal/service"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Handlers bundles the services the HTTP layer fronts.
type Handlers struct {
	Tasks     *service.TaskService
	Validator *service.ValidatorService
	Decisions *service.DecisionService
	Engine    *ruleengine.Engine // nil unless the embedded evaluator is active
}

// CreateTask handles POST /api/v1/tasks.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[task.CreateRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}

	t, err := h.Tasks.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// ListTasks handles GET /api/v1/tasks.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	var filter database.ListFilter
	if s := r.URL.Query().Get("status"); s != "" {
		status := task.Status(s)
		if !task.ValidStatus(status) {
			writeError(w, http.StatusBadRequest, "unknown status "+s)
			return
		}
		filter.Status = &status
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	tasks, err := h.Tasks.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// GetTask handles GET /api/v1/tasks/{id}.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tasks.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "failed to get task")
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// updateStatusRequest is the body for status transitions.
type updateStatusRequest struct {
	Status           string `json:"status"`
	ReviewerResponse string `json:"reviewer_response,omitempty"`
	Error            string `json:"error,omitempty"`
}

// UpdateTaskStatus handles POST /api/v1/tasks/{id}/status.
func (h *Handlers) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[updateStatusRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}

	status := task.Status(req.Status)
	if !task.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, "unknown status "+req.Status)
		return
	}

	found, err := h.Tasks.UpdateStatus(r.Context(), urlParam(r, "id"), status, database.UpdateStatusRequest{
		ReviewerResponse: req.ReviewerResponse,
		Error:            req.Error,
	})
	if err != nil {
		writeDomainError(w, err, "failed to update task status")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// TaskStats handles GET /api/v1/tasks/stats.
func (h *Handlers) TaskStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Tasks.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err, "failed to compute task stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// validateRequest is the body for tool-call validation.
type validateRequest struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters,omitempty"`
	AgentType  string         `json:"agent_type,omitempty"`
	AgentID    string         `json:"agent_id,omitempty"`
}

// ValidateToolCall handles POST /api/v1/validate.
func (h *Handlers) ValidateToolCall(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[validateRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}
	if req.ToolName == "" {
		writeError(w, http.StatusBadRequest, "tool_name is required")
		return
	}

	verdict := h.Validator.Validate(r.Context(), req.ToolName, req.Parameters, req.AgentType, req.AgentID)
	writeJSON(w, http.StatusOK, verdict)
}

// ListDecisions handles GET /api/v1/decisions.
func (h *Handlers) ListDecisions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := decisionlog.Filter{
		ToolName: q.Get("tool"),
	}
	if t := q.Get("type"); t != "" {
		typ := decision.Type(t)
		if !decision.ValidType(typ) {
			writeError(w, http.StatusBadRequest, "unknown decision type "+t)
			return
		}
		filter.Type = typ
	}
	if res := q.Get("result"); res != "" {
		result := decision.Result(res)
		if !decision.ValidResult(result) {
			writeError(w, http.StatusBadRequest, "unknown decision result "+res)
			return
		}
		filter.Result = result
	}
	after, ok := parseTimeParam(w, q.Get("after"), "after")
	if !ok {
		return
	}
	filter.After = after
	before, ok := parseTimeParam(w, q.Get("before"), "before")
	if !ok {
		return
	}
	filter.Before = before

	limit := 100
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	decisions, err := h.Decisions.Query(r.Context(), filter, limit)
	if err != nil {
		writeDomainError(w, err, "failed to query decisions")
		return
	}
	if decisions == nil {
		decisions = []decision.Decision{}
	}
	writeJSON(w, http.StatusOK, decisions)
}

// DecisionSummary handles GET /api/v1/decisions/summary.
func (h *Handlers) DecisionSummary(w http.ResponseWriter, r *http.Request) {
	since, ok := parseTimeParam(w, r.URL.Query().Get("since"), "since")
	if !ok {
		return
	}

	summary, err := h.Decisions.Summary(r.Context(), since)
	if err != nil {
		writeDomainError(w, err, "failed to summarize decisions")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ListPolicies handles GET /api/v1/policies.
func (h *Handlers) ListPolicies(w http.ResponseWriter, _ *http.Request) {
	if h.Engine == nil {
		writeJSON(w, http.StatusOK, map[string]any{"mode": "remote or disabled", "profiles": []string{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active":   h.Engine.ActiveProfile(),
		"profiles": h.Engine.ListProfiles(),
	})
}

// parseTimeParam parses an optional RFC3339 query parameter.
func parseTimeParam(w http.ResponseWriter, value, name string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		writeError(w, http.StatusBadRequest, name+" must be an RFC3339 timestamp")
		return nil, false
	}
	return &t, true
}
