package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentgate/agentgate/internal/domain/decision"
	"github.com/agentgate/agentgate/internal/port/cache"
	"github.com/agentgate/agentgate/internal/port/decisionlog"
)

// DecisionService exposes read access to the decision log. Summaries are
// served from a short-TTL cache because dashboards poll them.
type DecisionService struct {
	log        decisionlog.Log
	cache      cache.Cache // optional
	summaryTTL time.Duration
}

// NewDecisionService creates a DecisionService. cache may be nil.
func NewDecisionService(log decisionlog.Log, c cache.Cache, summaryTTL time.Duration) *DecisionService {
	return &DecisionService{log: log, cache: c, summaryTTL: summaryTTL}
}

// Query returns decisions in append order, oldest first.
func (s *DecisionService) Query(ctx context.Context, filter decisionlog.Filter, limit int) ([]decision.Decision, error) {
	return s.log.Query(ctx, filter, limit)
}

// Summary aggregates decision counts per type and result, cached for the
// configured TTL.
func (s *DecisionService) Summary(ctx context.Context, since *time.Time) (decisionlog.Summary, error) {
	key := "decisions:summary"
	if since != nil {
		key = fmt.Sprintf("%s:%d", key, since.Unix())
	}

	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var summary decisionlog.Summary
			if err := json.Unmarshal(data, &summary); err == nil {
				return summary, nil
			}
		}
	}

	summary, err := s.log.Summarize(ctx, since)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			_ = s.cache.Set(ctx, key, data, s.summaryTTL)
		}
	}
	return summary, nil
}
