package agent

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/lockstepd/lockstep/internal/ledger"
)

// Worker performs the actual work for a claimed task and reports the final
// status. The work itself is opaque to the coordination core; the lock is
// never held while Perform runs.
type Worker interface {
	Perform(ctx context.Context, task *ledger.Task) (ledger.TaskStatus, error)
}

// WorkerFunc adapts a function to the Worker interface.
type WorkerFunc func(ctx context.Context, task *ledger.Task) (ledger.TaskStatus, error)

// Perform calls f.
func (f WorkerFunc) Perform(ctx context.Context, task *ledger.Task) (ledger.TaskStatus, error) {
	return f(ctx, task)
}

// SimulatedWorker sleeps for a random duration and succeeds with a
// configurable probability. It stands in for real work when exercising the
// coordination pipeline end to end.
type SimulatedWorker struct {
	// MinDuration and MaxDuration bound the simulated work time.
	MinDuration time.Duration
	MaxDuration time.Duration

	// SuccessRate is the probability in [0, 1] that a task completes
	// successfully rather than failing.
	SuccessRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedWorker returns a worker with 1-3s of simulated work and a 90%
// success rate.
func NewSimulatedWorker() *SimulatedWorker {
	return &SimulatedWorker{
		MinDuration: time.Second,
		MaxDuration: 3 * time.Second,
		SuccessRate: 0.9,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Perform sleeps for a duration in [MinDuration, MaxDuration] and returns
// COMPLETED with probability SuccessRate, FAILED otherwise. It returns early
// with the context's error if the context is canceled mid-work.
func (w *SimulatedWorker) Perform(ctx context.Context, task *ledger.Task) (ledger.TaskStatus, error) {
	w.mu.Lock()
	d := w.MinDuration
	if w.MaxDuration > w.MinDuration {
		d += time.Duration(w.rng.Int63n(int64(w.MaxDuration - w.MinDuration)))
	}
	succeeded := w.rng.Float64() < w.SuccessRate
	w.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ledger.TaskFailed, ctx.Err()
	case <-timer.C:
	}

	if succeeded {
		return ledger.TaskCompleted, nil
	}
	return ledger.TaskFailed, nil
}
