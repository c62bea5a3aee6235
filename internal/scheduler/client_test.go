package scheduler

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

type stubSchedulerConfig struct {
	redisURL string
	queue    string
}

func (c stubSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c stubSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c stubSchedulerConfig) GetAsynqQueueName() string { return c.queue }
func (c stubSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func TestNewClient_RequiresRedisURL(t *testing.T) {
	if _, err := NewClient(stubSchedulerConfig{}); err == nil {
		t.Fatalf("expected an error without a redis url")
	}
}

func TestClient_EnqueueTasks(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(stubSchedulerConfig{redisURL: "redis://" + srv.Addr(), queue: "lifecycle"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	if err := client.EnqueueRFVRecalculate(ctx); err != nil {
		t.Fatalf("failed to enqueue recalculation: %v", err)
	}
	if err := client.EnqueueLeadRedistribution(ctx); err != nil {
		t.Fatalf("failed to enqueue redistribution: %v", err)
	}

	if !srv.Exists("asynq:{lifecycle}:pending") {
		t.Fatalf("expected pending tasks on the lifecycle queue")
	}
}

func TestTaskPayloadRoundTrip(t *testing.T) {
	task, err := NewLeadsRedistributeTask(LeadsRedistributePayload{Action: "distribute_only", RequestedBy: "cron"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskLeadsRedistribute {
		t.Fatalf("unexpected task type %q", task.Type())
	}

	payload, err := ParseLeadsRedistributePayload(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Action != "distribute_only" || payload.RequestedBy != "cron" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}
