package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agentgate/agentgate/internal/domain/decision"
	"github.com/agentgate/agentgate/internal/port/decisionlog"
)

// Append durably records a decision. The fsync completes before the
// record becomes visible to readers, so append order equals both the
// on-disk order and the query order.
func (s *Store) Append(_ context.Context, d decision.Decision) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	data = append(data, '\n')

	s.dmu.Lock()
	defer s.dmu.Unlock()

	if s.dfile == nil {
		return errors.New("decision log is closed")
	}
	if _, err := s.dfile.Write(data); err != nil {
		return fmt.Errorf("append decision: %w", err)
	}
	if err := s.dfile.Sync(); err != nil {
		return fmt.Errorf("sync decision log: %w", err)
	}

	s.decisions = append(s.decisions, d)
	return nil
}

// Query returns decisions in append order, oldest first.
func (s *Store) Query(_ context.Context, filter decisionlog.Filter, limit int) ([]decision.Decision, error) {
	s.dmu.Lock()
	defer s.dmu.Unlock()

	var out []decision.Decision
	for i := range s.decisions {
		d := &s.decisions[i]
		if !matchesFilter(d, filter) {
			continue
		}
		out = append(out, *d)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Summarize counts decisions per type and result over the optional window.
func (s *Store) Summarize(_ context.Context, since *time.Time) (decisionlog.Summary, error) {
	s.dmu.Lock()
	defer s.dmu.Unlock()

	summary := make(decisionlog.Summary)
	for i := range s.decisions {
		d := &s.decisions[i]
		if since != nil && d.Timestamp.Before(*since) {
			continue
		}
		byResult, ok := summary[d.Type]
		if !ok {
			byResult = make(map[decision.Result]int)
			summary[d.Type] = byResult
		}
		byResult[d.Result]++
	}
	return summary, nil
}

func matchesFilter(d *decision.Decision, f decisionlog.Filter) bool {
	if f.Type != "" && d.Type != f.Type {
		return false
	}
	if f.Result != "" && d.Result != f.Result {
		return false
	}
	if f.ToolName != "" && d.ToolName != f.ToolName {
		return false
	}
	if f.After != nil && !d.Timestamp.After(*f.After) {
		return false
	}
	if f.Before != nil && !d.Timestamp.Before(*f.Before) {
		return false
	}
	return true
}
