package agent

import (
	"context"
	"testing"
	"time"

	"github.com/lockstepd/lockstep/internal/ledger"
)

func TestWorkerFuncAdapter(t *testing.T) {
	var got string
	w := WorkerFunc(func(ctx context.Context, task *ledger.Task) (ledger.TaskStatus, error) {
		got = task.ID
		return ledger.TaskCompleted, nil
	})

	status, err := w.Perform(context.Background(), &ledger.Task{ID: "t1"})
	if err != nil {
		t.Fatalf("Perform returned error: %v", err)
	}
	if status != ledger.TaskCompleted || got != "t1" {
		t.Errorf("status=%s got=%s", status, got)
	}
}

func TestSimulatedWorkerAlwaysSucceeds(t *testing.T) {
	w := NewSimulatedWorker()
	w.MinDuration = time.Millisecond
	w.MaxDuration = time.Millisecond
	w.SuccessRate = 1.0

	for i := 0; i < 5; i++ {
		status, err := w.Perform(context.Background(), &ledger.Task{ID: "t1"})
		if err != nil {
			t.Fatalf("Perform returned error: %v", err)
		}
		if status != ledger.TaskCompleted {
			t.Errorf("status = %s, want COMPLETED with SuccessRate 1", status)
		}
	}
}

func TestSimulatedWorkerAlwaysFails(t *testing.T) {
	w := NewSimulatedWorker()
	w.MinDuration = time.Millisecond
	w.MaxDuration = time.Millisecond
	w.SuccessRate = 0

	status, err := w.Perform(context.Background(), &ledger.Task{ID: "t1"})
	if err != nil {
		t.Fatalf("Perform returned error: %v", err)
	}
	if status != ledger.TaskFailed {
		t.Errorf("status = %s, want FAILED with SuccessRate 0", status)
	}
}

func TestSimulatedWorkerHonorsCancellation(t *testing.T) {
	w := NewSimulatedWorker()
	w.MinDuration = time.Minute
	w.MaxDuration = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	status, err := w.Perform(ctx, &ledger.Task{ID: "t1"})
	if time.Since(start) > time.Second {
		t.Error("Perform did not return promptly after cancellation")
	}
	if err == nil {
		t.Error("Perform returned no error for a canceled context")
	}
	if status != ledger.TaskFailed {
		t.Errorf("status = %s, want FAILED on cancellation", status)
	}
}
