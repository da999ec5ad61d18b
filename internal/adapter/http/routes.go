package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Tasks
		r.Post("/tasks", h.CreateTask)
		r.Get("/tasks", h.ListTasks)
		r.Get("/tasks/stats", h.TaskStats)
		r.Get("/tasks/{id}", h.GetTask)
		r.Post("/tasks/{id}/status", h.UpdateTaskStatus)

		// Tool-call validation
		r.Post("/validate", h.ValidateToolCall)

		// Decision log
		r.Get("/decisions", h.ListDecisions)
		r.Get("/decisions/summary", h.DecisionSummary)

		// Policy profiles
		r.Get("/policies", h.ListPolicies)
	})
}
