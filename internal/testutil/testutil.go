// Package testutil provides shared fixtures for Lockstep tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lockstepd/lockstep/internal/ledger"
	"github.com/lockstepd/lockstep/internal/lockfile"
)

// TempPaths returns ledger and lock file paths inside a fresh temp dir.
func TempPaths(t *testing.T) (ledgerPath, lockPath string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "tasks.json"), filepath.Join(dir, "tasks.lock")
}

// SeedTwoPairLedger builds the canonical two-pair fixture: pair-1
// (sequence 1, READY) over tasks t1/t2 and pair-2 (sequence 2, BLOCKED)
// over tasks t3/t4. All tasks are PENDING with no agent preference.
func SeedTwoPairLedger(t *testing.T) *ledger.Ledger {
	t.Helper()

	l := ledger.New()
	seeds := []struct {
		id, desc, pair string
	}{
		{"t1", "implement feature", "pair-1"},
		{"t2", "review feature", "pair-1"},
		{"t3", "implement followup", "pair-2"},
		{"t4", "review followup", "pair-2"},
	}
	for _, s := range seeds {
		task := ledger.NewTask(s.id, s.desc, "", "seed")
		task.PairID = s.pair
		l.Tasks = append(l.Tasks, task)
	}
	l.TaskPairs = append(l.TaskPairs,
		ledger.NewPair("pair-1", "t1", "t2", 1, ledger.PairReady, "seed"),
		ledger.NewPair("pair-2", "t3", "t4", 2, ledger.PairBlocked, "seed"),
	)
	return l
}

// WriteLedger persists l at path, failing the test on error.
func WriteLedger(t *testing.T, path string, l *ledger.Ledger) {
	t.Helper()
	if err := ledger.NewStore(path, nil).Write(l); err != nil {
		t.Fatalf("failed to write ledger fixture: %v", err)
	}
}

// WriteLockRecord writes a lock file held by agentID whose timestamp is age
// in the past. Use a zero age for a fresh lock.
func WriteLockRecord(t *testing.T, path, agentID string, age time.Duration) {
	t.Helper()
	rec := lockfile.Record{AgentID: agentID, Timestamp: time.Now().UTC().Add(-age)}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("failed to marshal lock record: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write lock file: %v", err)
	}
}
