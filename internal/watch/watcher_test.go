package watch_test

import (
	"testing"
	"time"

	"github.com/lockstepd/lockstep/internal/ledger"
	"github.com/lockstepd/lockstep/internal/pipeline"
	"github.com/lockstepd/lockstep/internal/testutil"
	"github.com/lockstepd/lockstep/internal/watch"
)

func TestSummarize(t *testing.T) {
	l := testutil.SeedTwoPairLedger(t)
	l.Task("t1").Status = ledger.TaskCompleted
	l.Task("t2").Status = ledger.TaskInProgress
	l.Task("t2").AssignedTo = "agent-b"

	s := watch.Summarize(l)

	if s.Tasks[ledger.TaskPending] != 2 {
		t.Errorf("pending = %d, want 2", s.Tasks[ledger.TaskPending])
	}
	if s.Tasks[ledger.TaskInProgress] != 1 || s.Tasks[ledger.TaskCompleted] != 1 {
		t.Errorf("in progress = %d, completed = %d, want 1 and 1",
			s.Tasks[ledger.TaskInProgress], s.Tasks[ledger.TaskCompleted])
	}
	if s.Pairs[ledger.PairReady] != 1 || s.Pairs[ledger.PairBlocked] != 1 {
		t.Errorf("pairs = %+v, want one READY and one BLOCKED", s.Pairs)
	}
	if s.ActivePair != "pair-1" {
		t.Errorf("active pair = %q, want pair-1", s.ActivePair)
	}
}

func TestSummarizeEmptyLedger(t *testing.T) {
	s := watch.Summarize(ledger.New())
	if s.ActivePair != "" {
		t.Errorf("active pair = %q, want empty", s.ActivePair)
	}
	if len(s.Tasks) != 0 || len(s.Pairs) != 0 {
		t.Errorf("empty ledger produced counts: %+v %+v", s.Tasks, s.Pairs)
	}
}

func TestStopWithoutStart(t *testing.T) {
	ledgerPath, _ := testutil.TempPaths(t)
	w, err := watch.New(ledger.NewStore(ledgerPath, nil), nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	// No event loop is running; Stop must still return promptly.
	stopped := make(chan error, 1)
	go func() { stopped <- w.Stop() }()

	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("Stop returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked without a running event loop")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	ledgerPath, _ := testutil.TempPaths(t)
	store := ledger.NewStore(ledgerPath, nil)
	testutil.WriteLedger(t, ledgerPath, testutil.SeedTwoPairLedger(t))

	w, err := watch.New(store, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	if err := w.Start(func(watch.Summary) {}); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("first Stop returned error: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop returned error: %v", err)
	}
}

func TestWatcherEmitsOnLedgerWrite(t *testing.T) {
	ledgerPath, _ := testutil.TempPaths(t)
	store := ledger.NewStore(ledgerPath, nil)
	testutil.WriteLedger(t, ledgerPath, testutil.SeedTwoPairLedger(t))

	w, err := watch.New(store, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	summaries := make(chan watch.Summary, 8)
	if err := w.Start(func(s watch.Summary) { summaries <- s }); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer w.Stop()

	// Mutate and rewrite the ledger; the watcher should observe the rename.
	led, err := store.Read()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	task := led.Task("t1")
	if err := pipeline.Claim(task, "agent-a"); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := store.Write(led); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-summaries:
			if s.Tasks[ledger.TaskInProgress] == 1 {
				return // observed the claim
			}
		case <-deadline:
			t.Fatal("watcher never reported the ledger change")
		}
	}
}
