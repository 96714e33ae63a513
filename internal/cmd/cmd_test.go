package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lockstepd/lockstep/internal/ledger"
)

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "lockstep" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "lockstep")
	}

	// Check for expected subcommands (compare by Name(), not Use which includes args)
	expected := []string{"init", "add-task", "add-pair", "create-pair", "status", "advance", "validate", "agent", "watch"}
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range expected {
		if !names[want] {
			t.Errorf("expected subcommand %q not found", want)
		}
	}
}

// TestAdminWorkflow drives the administrative commands end to end over temp
// files: init, add tasks, pair them, bootstrap the pipeline, and validate.
func TestAdminWorkflow(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "tasks.json")
	lockPath := filepath.Join(dir, "tasks.lock")

	run := func(args ...string) error {
		t.Helper()
		full := append([]string{"--ledger", ledgerPath, "--lock-file", lockPath}, args...)
		rootCmd.SetArgs(full)
		return rootCmd.Execute()
	}
	mustRun := func(args ...string) {
		t.Helper()
		if err := run(args...); err != nil {
			t.Fatalf("command %v failed: %v", args, err)
		}
	}

	mustRun("init")
	if _, err := os.Stat(ledgerPath); err != nil {
		t.Fatalf("init did not create the ledger: %v", err)
	}
	if err := run("init"); err == nil {
		t.Fatal("re-init without --force succeeded")
	}

	mustRun("add-task", "--id", "t1", "--desc", "implement feature")
	mustRun("add-task", "--id", "t2", "--desc", "review feature")
	if err := run("add-task", "--id", "t1", "--desc", "duplicate"); err == nil {
		t.Fatal("duplicate task id was accepted")
	}

	mustRun("add-pair", "--id", "p1", "--task1", "t1", "--task2", "t2", "--seq", "1")

	store := ledger.NewStore(ledgerPath, nil)
	led, err := store.Read()
	if err != nil {
		t.Fatalf("failed to read ledger: %v", err)
	}
	if got := led.Task("t1").PairID; got != "p1" {
		t.Errorf("t1 pair_id = %q, want p1 (back-filled by add-pair)", got)
	}
	pair := led.Pair("p1")
	if pair == nil || pair.Status != ledger.PairBlocked || !pair.PairLock {
		t.Fatalf("pair p1 = %+v, want BLOCKED and locked", pair)
	}

	// Nothing has completed yet, so a plain advance is refused.
	if err := run("advance"); err == nil {
		t.Fatal("advance without --force succeeded on a fresh ledger")
	}
	mustRun("advance", "--force")

	led, _ = store.Read()
	pair = led.Pair("p1")
	if pair.Status != ledger.PairReady || pair.PairLock {
		t.Errorf("after forced advance p1 = %s/lock=%v, want READY/unlocked", pair.Status, pair.PairLock)
	}

	mustRun("create-pair", "--desc1", "implement followup", "--desc2", "review followup",
		"--seq", "2", "--prefix", "step2")

	led, _ = store.Read()
	for _, id := range []string{"step2_t1", "step2_t2"} {
		task := led.Task(id)
		if task == nil {
			t.Fatalf("create-pair did not create task %s", id)
		}
		if task.PairID != "step2_p" {
			t.Errorf("%s pair_id = %q, want step2_p", id, task.PairID)
		}
	}
	if p := led.Pair("step2_p"); p == nil || p.Status != ledger.PairBlocked {
		t.Errorf("step2_p = %+v, want BLOCKED", p)
	}

	mustRun("validate")
	mustRun("status", "--json")

	// No lock file may linger after administrative commands.
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("lock file left behind: %v", err)
	}
}

func TestValidateFailsOnBrokenLedger(t *testing.T) {
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "tasks.json")
	lockPath := filepath.Join(dir, "tasks.lock")

	l := ledger.New()
	task := ledger.NewTask("t1", "orphaned", "", "test")
	task.PairID = "pair-gone"
	l.Tasks = append(l.Tasks, task)
	if err := ledger.NewStore(ledgerPath, nil).Write(l); err != nil {
		t.Fatalf("failed to seed ledger: %v", err)
	}

	rootCmd.SetArgs([]string{"--ledger", ledgerPath, "--lock-file", lockPath, "validate"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("validate succeeded on a ledger with an orphaned pair reference")
	}
}
