// Package agent runs the claim-work-finalize loop for one worker process.
//
// Each agent is an independent process with its own serial loop; all
// coordination between agents happens through the shared ledger file and the
// advisory lock file. The lock is deliberately released while work runs so
// that other agents are not blocked for the (unbounded) work duration; the
// ledger state is re-validated on reacquire.
package agent

import (
	"context"
	"time"

	"github.com/lockstepd/lockstep/internal/errors"
	"github.com/lockstepd/lockstep/internal/ledger"
	"github.com/lockstepd/lockstep/internal/lockfile"
	"github.com/lockstepd/lockstep/internal/logging"
	"github.com/lockstepd/lockstep/internal/pipeline"
)

// Defaults for loop tuning, matching the administrative defaults.
const (
	DefaultMaxWait       = 60 * time.Second
	DefaultRetryInterval = 5 * time.Second
	DefaultStaleTimeout  = 5 * time.Minute
	DefaultInterval      = 10 * time.Second
)

// Option configures an Agent.
type Option func(*Agent)

// WithMaxWait sets the lock acquisition budget per attempt.
func WithMaxWait(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.maxWait = d
		}
	}
}

// WithRetryInterval sets the sleep between lock acquisition attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.retryInterval = d
		}
	}
}

// WithStaleTimeout sets the age beyond which a lock file is presumed
// abandoned.
func WithStaleTimeout(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.staleTimeout = d
		}
	}
}

// WithInterval sets the sleep between processing cycles.
func WithInterval(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.interval = d
		}
	}
}

// Agent orchestrates the lock manager, ledger store, state machine and a
// worker to repeatedly claim one task, execute it, and finalize its outcome.
// All dependencies are explicit; there are no process-wide singletons.
type Agent struct {
	id     string
	store  *ledger.Store
	lock   *lockfile.Manager
	worker Worker
	log    *logging.Logger

	maxWait       time.Duration
	retryInterval time.Duration
	staleTimeout  time.Duration
	interval      time.Duration

	cycle int // cycles run so far; the agent loop is single-goroutine
}

// New creates an Agent. store, lock and worker are required; log may be nil.
func New(id string, store *ledger.Store, lock *lockfile.Manager, worker Worker, log *logging.Logger, opts ...Option) *Agent {
	if log == nil {
		log = logging.NopLogger()
	}
	a := &Agent{
		id:            id,
		store:         store,
		lock:          lock,
		worker:        worker,
		log:           log.WithAgent(id),
		maxWait:       DefaultMaxWait,
		retryInterval: DefaultRetryInterval,
		staleTimeout:  DefaultStaleTimeout,
		interval:      DefaultInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ID returns the agent identifier.
func (a *Agent) ID() string {
	return a.id
}

// RunCycle performs one claim-work-finalize cycle. It returns true when work
// was performed this cycle, even if the outcome could not be recorded (that
// case is logged at the highest severity and requires external
// reconciliation).
//
// Every exit path releases the lock if this agent holds it; a failed cycle
// never wedges the pipeline.
func (a *Agent) RunCycle(ctx context.Context) bool {
	a.cycle++
	if !a.lock.Acquire(a.maxWait, a.retryInterval, a.staleTimeout) {
		a.log.Warn("could not acquire lock, will retry next cycle")
		return false
	}

	held := true
	defer func() {
		if held {
			a.lock.Release()
		}
	}()

	led, err := a.store.Read()
	if err != nil {
		a.log.Error("failed to read ledger", "error", err)
		return false
	}

	pair := pipeline.FindActivePair(led)
	if pair == nil {
		a.log.Debug("no READY and unlocked pair found")
		return false
	}
	log := a.log.WithPair(pair.PairID)
	log.Debug("found active pair", "sequence_index", pair.SequenceIndex)

	task := pipeline.FindClaimableTask(led, pair, a.id)
	if task == nil {
		log.Debug("no claimable task in active pair")
		return false
	}
	log = log.WithTask(task.ID)

	if err := pipeline.Claim(task, a.id); err != nil {
		log.Error("failed to claim task", "error", err)
		return false
	}
	if err := a.store.Write(led); err != nil {
		log.Error("failed to record claim", "error", err)
		return false
	}
	log.Info("task claimed", "description", task.Description)

	// Release before working: work duration is unbounded and must not block
	// other agents from claiming unrelated tasks. The claim is already
	// durable in the ledger.
	a.lock.Release()
	held = false

	final, workErr := a.worker.Perform(ctx, task)
	if workErr != nil {
		log.Error("work failed", "error", workErr)
		final = ledger.TaskFailed
	}
	log.Info("work finished", "final_status", final.String())

	if !a.lock.Acquire(a.maxWait, a.retryInterval, a.staleTimeout) {
		// The ledger and the real-world work state have diverged; nothing
		// below can run. Manual reconciliation is required.
		criticalErr := errors.NewAgentError("work finished but outcome not recorded",
			errors.ErrLockNotAcquired).
			WithAgentID(a.id).WithTaskID(task.ID).WithCycle(a.cycle).
			WithSeverity(errors.SeverityCritical).WithRetryable(false)
		log.Error("CRITICAL: could not re-acquire lock to finalize task",
			"final_status", final.String(),
			"error", criticalErr,
			"severity", errors.GetSeverity(criticalErr).String())
		return true
	}
	held = true

	a.finalize(log, task.ID, final)
	return true
}

// finalize re-reads the ledger and records the task outcome, advancing the
// pair barrier when both of its tasks are complete. Failures here are logged
// and swallowed: work already happened, and the deferred release in RunCycle
// still runs.
func (a *Agent) finalize(log *logging.Logger, taskID string, final ledger.TaskStatus) {
	led, err := a.store.Read()
	if err != nil {
		log.Error("failed to re-read ledger for finalize", "error", err)
		return
	}

	task := led.Task(taskID)
	if task == nil {
		log.Error("task no longer present in ledger at finalize time")
		return
	}

	if err := pipeline.Finalize(task, final, a.id); err != nil {
		if errors.Is(err, errors.ErrTaskSuperseded) {
			log.Warn("task was reassigned while work ran, not overwriting",
				"assigned_to", task.AssignedTo)
			return
		}
		log.Error("failed to finalize task", "error", err)
		return
	}

	if task.PairID != "" {
		if pair := led.Pair(task.PairID); pair != nil {
			completed, next := pipeline.AdvanceIfPairComplete(led, pair, a.id)
			if completed {
				log.Info("pair completed", "pair_id", pair.PairID)
				if next != nil {
					log.Info("next pair advanced to READY",
						"pair_id", next.PairID, "sequence_index", next.SequenceIndex)
				} else {
					log.Info("no further BLOCKED pair to advance")
				}
			}
		} else {
			log.Warn("task references unknown pair", "pair_id", task.PairID)
		}
	}

	if err := a.store.Write(led); err != nil {
		log.Error("failed to write ledger after finalize", "error", err)
		return
	}
	log.Info("task finalized", "final_status", final.String())
}

// Run invokes RunCycle repeatedly, sleeping interval between cycles. With
// cycles <= 0 it runs until the context is canceled; otherwise it stops
// after the given number of cycles. A bad cycle never terminates the run.
func (a *Agent) Run(ctx context.Context, cycles int) {
	bounded := cycles > 0
	a.log.Info("agent run loop starting",
		"cycles", cycles, "bounded", bounded, "interval", a.interval.String())

	for executed := 0; !bounded || executed < cycles; {
		worked := a.RunCycle(ctx)
		executed++
		if worked {
			a.log.Debug("cycle finished", "cycle", executed, "worked", true)
		} else {
			a.log.Debug("cycle finished, nothing to do", "cycle", executed)
		}

		if bounded && executed >= cycles {
			break
		}

		select {
		case <-ctx.Done():
			a.log.Info("agent run loop canceled")
			return
		case <-time.After(a.interval):
		}
	}
	a.log.Info("agent run loop finished")
}
