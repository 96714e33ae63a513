package agent_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/lockstepd/lockstep/internal/agent"
	"github.com/lockstepd/lockstep/internal/ledger"
	"github.com/lockstepd/lockstep/internal/lockfile"
	"github.com/lockstepd/lockstep/internal/testutil"
)

// newTestAgent wires an agent over temp files with tight lock budgets and a
// worker that finishes instantly with the given status.
func newTestAgent(t *testing.T, id string, final ledger.TaskStatus) (*agent.Agent, *ledger.Store, string) {
	t.Helper()
	ledgerPath, lockPath := testutil.TempPaths(t)
	store := ledger.NewStore(ledgerPath, nil)
	lock := lockfile.NewManager(lockPath, id, nil)
	worker := agent.WorkerFunc(func(ctx context.Context, task *ledger.Task) (ledger.TaskStatus, error) {
		return final, nil
	})
	a := agent.New(id, store, lock, worker, nil,
		agent.WithMaxWait(time.Second),
		agent.WithRetryInterval(10*time.Millisecond),
		agent.WithInterval(time.Millisecond),
	)
	return a, store, lockPath
}

func TestRunCycleCompletesTask(t *testing.T) {
	a, store, lockPath := newTestAgent(t, "agent-a", ledger.TaskCompleted)
	testutil.WriteLedger(t, store.Path(), testutil.SeedTwoPairLedger(t))

	if !a.RunCycle(context.Background()) {
		t.Fatal("RunCycle reported no work on a claimable ledger")
	}

	led, err := store.Read()
	if err != nil {
		t.Fatalf("re-read failed: %v", err)
	}
	task := led.Task("t1")
	if task.Status != ledger.TaskCompleted {
		t.Errorf("t1 status = %s, want COMPLETED", task.Status)
	}
	if task.AssignedTo != "agent-a" {
		t.Errorf("t1 assigned_to = %q, want agent-a", task.AssignedTo)
	}

	var events []ledger.EventKind
	for _, e := range task.History {
		events = append(events, e.Event)
	}
	want := []ledger.EventKind{ledger.EventCreated, ledger.EventAssigned, ledger.EventStatusChanged}
	if len(events) != len(want) {
		t.Fatalf("history events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("history events = %v, want %v", events, want)
		}
	}

	// The lock must not be left behind.
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("lock file still present after cycle: %v", err)
	}
}

func TestRunCycleRecordsFailure(t *testing.T) {
	a, store, _ := newTestAgent(t, "agent-a", ledger.TaskFailed)
	testutil.WriteLedger(t, store.Path(), testutil.SeedTwoPairLedger(t))

	if !a.RunCycle(context.Background()) {
		t.Fatal("RunCycle reported no work")
	}

	led, _ := store.Read()
	if got := led.Task("t1").Status; got != ledger.TaskFailed {
		t.Errorf("t1 status = %s, want FAILED", got)
	}
	// A FAILED task must not complete the pair.
	if got := led.Pair("pair-1").Status; got != ledger.PairReady {
		t.Errorf("pair-1 status = %s, want READY", got)
	}
}

func TestRunCycleNothingToDo(t *testing.T) {
	a, store, lockPath := newTestAgent(t, "agent-a", ledger.TaskCompleted)

	seed := testutil.SeedTwoPairLedger(t)
	seed.Pair("pair-1").Status = ledger.PairBlocked
	seed.Pair("pair-1").PairLock = true
	testutil.WriteLedger(t, store.Path(), seed)

	if a.RunCycle(context.Background()) {
		t.Error("RunCycle reported work with every pair BLOCKED")
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("lock file still present: %v", err)
	}
}

func TestRunCycleAdvancesPairBarrier(t *testing.T) {
	a, store, _ := newTestAgent(t, "agent-a", ledger.TaskCompleted)

	seed := testutil.SeedTwoPairLedger(t)
	// t2 already done; completing t1 closes the pair.
	seed.Task("t2").Status = ledger.TaskCompleted
	seed.Task("t2").AssignedTo = "agent-b"
	testutil.WriteLedger(t, store.Path(), seed)

	if !a.RunCycle(context.Background()) {
		t.Fatal("RunCycle reported no work")
	}

	led, _ := store.Read()
	if got := led.Pair("pair-1").Status; got != ledger.PairCompleted {
		t.Errorf("pair-1 status = %s, want COMPLETED", got)
	}
	if p := led.Pair("pair-2"); p.Status != ledger.PairReady || p.PairLock {
		t.Errorf("pair-2 = %s/lock=%v, want READY/unlocked", p.Status, p.PairLock)
	}
}

func TestFinalizeSkippedWhenReassigned(t *testing.T) {
	ledgerPath, lockPath := testutil.TempPaths(t)
	store := ledger.NewStore(ledgerPath, nil)
	lock := lockfile.NewManager(lockPath, "agent-a", nil)
	testutil.WriteLedger(t, ledgerPath, testutil.SeedTwoPairLedger(t))

	// While the lock is released for work, another actor reassigns the task.
	worker := agent.WorkerFunc(func(ctx context.Context, task *ledger.Task) (ledger.TaskStatus, error) {
		led, err := store.Read()
		if err != nil {
			t.Fatalf("mid-work read failed: %v", err)
		}
		hijacked := led.Task(task.ID)
		hijacked.AssignedTo = "agent-b"
		hijacked.Record(ledger.EventAssigned, "agent-b", "reassigned during the race window")
		if err := store.Write(led); err != nil {
			t.Fatalf("mid-work write failed: %v", err)
		}
		return ledger.TaskCompleted, nil
	})

	a := agent.New("agent-a", store, lock, worker, nil,
		agent.WithMaxWait(time.Second),
		agent.WithRetryInterval(10*time.Millisecond),
	)

	if !a.RunCycle(context.Background()) {
		t.Fatal("RunCycle reported no work")
	}

	led, _ := store.Read()
	task := led.Task("t1")
	if task.AssignedTo != "agent-b" {
		t.Errorf("assigned_to = %q, the reassignment was overwritten", task.AssignedTo)
	}
	if task.Status == ledger.TaskCompleted {
		t.Error("superseded agent's outcome was recorded anyway")
	}
}

func TestRunCycleOutcomeUnrecordedWhenReacquireFails(t *testing.T) {
	ledgerPath, lockPath := testutil.TempPaths(t)
	store := ledger.NewStore(ledgerPath, nil)
	lock := lockfile.NewManager(lockPath, "agent-a", nil)
	testutil.WriteLedger(t, ledgerPath, testutil.SeedTwoPairLedger(t))

	// Another process grabs the lock while work runs and never lets go.
	worker := agent.WorkerFunc(func(ctx context.Context, task *ledger.Task) (ledger.TaskStatus, error) {
		testutil.WriteLockRecord(t, lockPath, "agent-other", 0)
		return ledger.TaskCompleted, nil
	})

	a := agent.New("agent-a", store, lock, worker, nil,
		agent.WithMaxWait(50*time.Millisecond),
		agent.WithRetryInterval(10*time.Millisecond),
		agent.WithStaleTimeout(time.Hour),
	)

	// Work happened, so the cycle counts as worked even though the outcome
	// could not be written back.
	if !a.RunCycle(context.Background()) {
		t.Fatal("RunCycle must report work even when the outcome cannot be recorded")
	}

	led, err := store.Read()
	if err != nil {
		t.Fatalf("re-read failed: %v", err)
	}
	task := led.Task("t1")
	if task.Status != ledger.TaskInProgress {
		t.Errorf("t1 status = %s, want IN_PROGRESS (outcome must stay unrecorded)", task.Status)
	}
	if task.AssignedTo != "agent-a" {
		t.Errorf("t1 assigned_to = %q, want agent-a", task.AssignedTo)
	}

	// The foreign holder's lock must be left alone.
	rec, ok := lock.Holder()
	if !ok || rec.AgentID != "agent-other" {
		t.Errorf("foreign lock disturbed: rec=%+v ok=%v", rec, ok)
	}
}

func TestRunBoundedCycles(t *testing.T) {
	a, store, _ := newTestAgent(t, "agent-a", ledger.TaskCompleted)
	testutil.WriteLedger(t, store.Path(), testutil.SeedTwoPairLedger(t))

	a.Run(context.Background(), 2)

	led, _ := store.Read()
	if got := led.Task("t1").Status; got != ledger.TaskCompleted {
		t.Errorf("t1 status = %s, want COMPLETED", got)
	}
	if got := led.Task("t2").Status; got != ledger.TaskCompleted {
		t.Errorf("t2 status = %s, want COMPLETED", got)
	}
	if got := led.Pair("pair-1").Status; got != ledger.PairCompleted {
		t.Errorf("pair-1 status = %s, want COMPLETED", got)
	}
	// Only two cycles ran; pair-2's tasks are untouched.
	if got := led.Task("t3").Status; got != ledger.TaskPending {
		t.Errorf("t3 status = %s, want PENDING", got)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	a, store, _ := newTestAgent(t, "agent-a", ledger.TaskCompleted)
	testutil.WriteLedger(t, store.Path(), ledger.New())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx, 0)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
