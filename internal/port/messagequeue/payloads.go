package messagequeue

// TaskCreatedPayload is the schema for tasks.created messages.
type TaskCreatedPayload struct {
	TaskID   string `json:"task_id"`
	Title    string `json:"title"`
	Priority string `json:"priority"`
}

// TaskStatusPayload is the schema for tasks.status messages.
type TaskStatusPayload struct {
	TaskID     string `json:"task_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// DecisionRecordedPayload is the schema for decisions.tool messages.
type DecisionRecordedPayload struct {
	DecisionID string `json:"decision_id"`
	Type       string `json:"type"`
	Result     string `json:"result"`
	ToolName   string `json:"tool_name,omitempty"`
	AgentID    string `json:"agent_id,omitempty"`
}
