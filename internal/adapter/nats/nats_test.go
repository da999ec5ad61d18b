package nats

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/agentgate/agentgate/internal/port/messagequeue"
)

// testQueue connects to the server named by TEST_NATS_URL. Tests are
// skipped when the variable is unset.
func testQueue(t *testing.T) *Queue {
	t.Helper()
	url := os.Getenv("TEST_NATS_URL")
	if url == "" {
		t.Skip("TEST_NATS_URL not set")
	}

	q, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	q := testQueue(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan []byte, 1)
	stop, err := q.Subscribe(ctx, messagequeue.SubjectTaskCreated, func(_ context.Context, _ string, data []byte) error {
		select {
		case received <- data:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stop()

	payload := []byte(`{"task_id":"t-1","title":"roundtrip","priority":"low"}`)
	if err := q.Publish(ctx, messagequeue.SubjectTaskCreated, payload); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case data := <-received:
		if err := messagequeue.Validate(messagequeue.SubjectTaskCreated, data); err != nil {
			t.Errorf("received payload invalid: %v", err)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}
