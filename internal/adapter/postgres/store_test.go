package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/agentgate/agentgate/internal/config"
	"github.com/agentgate/agentgate/internal/domain/decision"
	"github.com/agentgate/agentgate/internal/domain/task"
	"github.com/agentgate/agentgate/internal/port/database"
	"github.com/agentgate/agentgate/internal/port/decisionlog"
)

// testPool connects to the database named by TEST_DATABASE_URL and runs
// migrations. Tests are skipped when the variable is unset.
func testPool(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	cfg := config.Defaults().Postgres
	cfg.DSN = dsn

	pool, err := NewPool(ctx, cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return NewStore(pool)
}

func TestPostgresTaskLifecycle(t *testing.T) {
	s := testPool(t)
	ctx := context.Background()

	created, err := s.CreateTask(ctx, task.CreateRequest{Title: "pg lifecycle", Priority: "high"})
	if err != nil {
		t.Fatal(err)
	}
	if created.Status != task.StatusPending || created.Seq == 0 {
		t.Fatalf("created = %+v", created)
	}

	prev, found, err := s.UpdateTaskStatus(ctx, created.ID, task.StatusApproved, database.UpdateStatusRequest{ReviewerResponse: "ok"})
	if err != nil || !found {
		t.Fatalf("approve: found=%v err=%v", found, err)
	}
	if prev != task.StatusPending {
		t.Errorf("prev = %s, want pending", prev)
	}

	got, err := s.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != task.StatusApproved || got.ReviewerResponse != "ok" || got.ReviewedAt == nil {
		t.Errorf("got = %+v", got)
	}

	// pending is no longer reachable from approved.
	_, _, err = s.UpdateTaskStatus(ctx, created.ID, task.StatusReview, database.UpdateStatusRequest{})
	var transitionErr *task.TransitionError
	if !errors.As(err, &transitionErr) {
		t.Errorf("expected TransitionError, got %v", err)
	}

	_, found, err = s.UpdateTaskStatus(ctx, "00000000-0000-0000-0000-000000000000", task.StatusApproved, database.UpdateStatusRequest{})
	if err != nil || found {
		t.Errorf("missing task: found=%v err=%v", found, err)
	}
}

func TestPostgresDecisionLog(t *testing.T) {
	s := testPool(t)
	l := NewDecisionLog(s.pool)
	ctx := context.Background()

	d := decision.New(decision.TypeToolCall, decision.ResultDeny, "pg test")
	d.ToolName = "pg_probe_tool"
	d.Context = map[string]any{"agent_type": "tester"}
	if err := l.Append(ctx, d); err != nil {
		t.Fatal(err)
	}

	got, err := l.Query(ctx, decisionlog.Filter{ToolName: "pg_probe_tool"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 {
		t.Fatal("appended decision not found")
	}
	last := got[len(got)-1]
	if last.Result != decision.ResultDeny || last.Context["agent_type"] != "tester" {
		t.Errorf("last = %+v", last)
	}

	since := time.Now().Add(-time.Minute)
	summary, err := l.Summarize(ctx, &since)
	if err != nil {
		t.Fatal(err)
	}
	if summary[decision.TypeToolCall][decision.ResultDeny] == 0 {
		t.Errorf("summary = %v", summary)
	}
}
