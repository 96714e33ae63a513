package ledger

import (
	"testing"
	"time"
)

func TestTaskStatusTerminal(t *testing.T) {
	cases := []struct {
		status   TaskStatus
		terminal bool
	}{
		{TaskPending, false},
		{TaskInProgress, false},
		{TaskCompleted, true},
		{TaskFailed, true},
	}
	for _, c := range cases {
		if got := c.status.IsTerminal(); got != c.terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", c.status, got, c.terminal)
		}
	}
}

func TestNewTaskStartsPendingWithCreatedEvent(t *testing.T) {
	task := NewTask("t1", "do the thing", "agent-a", "creator")

	if task.Status != TaskPending {
		t.Errorf("status = %s, want PENDING", task.Status)
	}
	if task.AssignedTo != "" {
		t.Errorf("new task already assigned to %q", task.AssignedTo)
	}
	if task.AgentPreference != "agent-a" {
		t.Errorf("agent_preference = %q, want agent-a", task.AgentPreference)
	}
	if len(task.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(task.History))
	}
	if task.History[0].Event != EventCreated || task.History[0].AgentID != "creator" {
		t.Errorf("unexpected creation event: %+v", task.History[0])
	}
}

func TestNewPairLockFollowsStatus(t *testing.T) {
	blocked := NewPair("p1", "t1", "t2", 1, PairBlocked, "creator")
	if !blocked.PairLock {
		t.Error("BLOCKED pair must start locked")
	}
	ready := NewPair("p2", "t3", "t4", 2, PairReady, "creator")
	if ready.PairLock {
		t.Error("READY pair must start unlocked")
	}
}

func TestRecordTouchesUpdatedAt(t *testing.T) {
	task := NewTask("t1", "desc", "", "creator")
	before := task.UpdatedAt

	time.Sleep(time.Millisecond)
	task.Record(EventUpdated, "someone", "changed a field")

	if !task.UpdatedAt.After(before) {
		t.Error("Record did not advance UpdatedAt")
	}
	if len(task.History) != 2 {
		t.Errorf("history length = %d, want 2", len(task.History))
	}
}

func TestLedgerLookups(t *testing.T) {
	l := New()
	l.Tasks = append(l.Tasks, NewTask("t1", "d", "", "x"))
	l.TaskPairs = append(l.TaskPairs, NewPair("p1", "t1", "t2", 1, PairReady, "x"))

	if l.Task("t1") == nil || l.Task("nope") != nil {
		t.Error("Task lookup misbehaved")
	}
	if l.Pair("p1") == nil || l.Pair("nope") != nil {
		t.Error("Pair lookup misbehaved")
	}
	if !l.HasID("t1") || !l.HasID("p1") || l.HasID("nope") {
		t.Error("HasID misbehaved")
	}
}
