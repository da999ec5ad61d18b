package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentgate/agentgate/internal/domain/decision"
	"github.com/agentgate/agentgate/internal/port/decisionlog"
)

// DecisionLog implements decisionlog.Log using PostgreSQL (append-only).
type DecisionLog struct {
	pool *pgxpool.Pool
}

// NewDecisionLog creates a DecisionLog backed by the given connection pool.
func NewDecisionLog(pool *pgxpool.Pool) *DecisionLog {
	return &DecisionLog{pool: pool}
}

// Append inserts a decision into the policy_decisions table.
func (l *DecisionLog) Append(ctx context.Context, d decision.Decision) error {
	var contextJSON []byte
	if d.Context != nil {
		var err error
		contextJSON, err = json.Marshal(d.Context)
		if err != nil {
			return fmt.Errorf("marshal decision context: %w", err)
		}
	}

	_, err := l.pool.Exec(ctx,
		`INSERT INTO policy_decisions (id, ts, decision_type, result, reason, context, user_id, agent_id, tool_name, policy_version, latency_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, d.Timestamp, string(d.Type), string(d.Result), d.Reason, contextJSON,
		d.UserID, d.AgentID, d.ToolName, d.PolicyVersion, d.LatencyMS)
	if err != nil {
		return fmt.Errorf("append decision: %w", err)
	}
	return nil
}

const decisionColumns = `id, ts, decision_type, result, reason, context, user_id, agent_id, tool_name, policy_version, latency_ms`

// Query returns decisions in append order, oldest first.
func (l *DecisionLog) Query(ctx context.Context, filter decisionlog.Filter, limit int) ([]decision.Decision, error) {
	var conditions []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Type != "" {
		add("decision_type = $%d", string(filter.Type))
	}
	if filter.Result != "" {
		add("result = $%d", string(filter.Result))
	}
	if filter.ToolName != "" {
		add("tool_name = $%d", filter.ToolName)
	}
	if filter.After != nil {
		add("ts > $%d", *filter.After)
	}
	if filter.Before != nil {
		add("ts < $%d", *filter.Before)
	}

	query := fmt.Sprintf(`SELECT %s FROM policy_decisions`, decisionColumns)
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY seq ASC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []decision.Decision
	for rows.Next() {
		var d decision.Decision
		var contextJSON []byte
		if err := rows.Scan(&d.ID, &d.Timestamp, &d.Type, &d.Result, &d.Reason, &contextJSON,
			&d.UserID, &d.AgentID, &d.ToolName, &d.PolicyVersion, &d.LatencyMS); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		if len(contextJSON) > 0 {
			if err := json.Unmarshal(contextJSON, &d.Context); err != nil {
				return nil, fmt.Errorf("unmarshal decision context: %w", err)
			}
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// Summarize counts decisions per type and result in a single query.
func (l *DecisionLog) Summarize(ctx context.Context, since *time.Time) (decisionlog.Summary, error) {
	query := `SELECT decision_type, result, COUNT(*) FROM policy_decisions`
	var args []any
	if since != nil {
		query += ` WHERE ts >= $1`
		args = append(args, *since)
	}
	query += ` GROUP BY decision_type, result`

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summarize decisions: %w", err)
	}
	defer rows.Close()

	summary := make(decisionlog.Summary)
	for rows.Next() {
		var typ, result string
		var count int
		if err := rows.Scan(&typ, &result, &count); err != nil {
			return nil, fmt.Errorf("scan decision summary: %w", err)
		}
		byResult, ok := summary[decision.Type(typ)]
		if !ok {
			byResult = make(map[decision.Result]int)
			summary[decision.Type(typ)] = byResult
		}
		byResult[decision.Result(result)] = count
	}
	return summary, rows.Err()
}
