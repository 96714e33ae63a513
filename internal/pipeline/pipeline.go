// Package pipeline implements the task and pair state machines as pure
// functions over an in-memory ledger snapshot.
//
// The functions here never touch the filesystem and never log: callers hold
// the snapshot (and the lock) and decide what to persist. All status
// transitions are validated centrally in this package rather than at call
// sites.
//
// # Pipeline Shape
//
// Pairs are processed in strictly increasing sequence_index order. At most
// one pair is active (READY and not pair-locked) at a time; its two tasks
// are claimed and completed independently, and only when both are COMPLETED
// does [AdvanceIfPairComplete] unblock the next pair in sequence.
package pipeline

import (
	"fmt"

	"github.com/lockstepd/lockstep/internal/errors"
	"github.com/lockstepd/lockstep/internal/ledger"
)

// FindActivePair returns the pair with the lowest sequence_index among pairs
// that are READY and not pair-locked, or nil when no pair is active. Ties on
// sequence_index (a data-integrity warning, not fatal) break by document
// order.
func FindActivePair(l *ledger.Ledger) *ledger.TaskPair {
	var active *ledger.TaskPair
	for _, p := range l.TaskPairs {
		if p.Status != ledger.PairReady || p.PairLock {
			continue
		}
		if active == nil || p.SequenceIndex < active.SequenceIndex {
			active = p
		}
	}
	return active
}

// FindClaimableTask scans the active pair's task IDs in the order listed on
// the pair and returns the first task that is PENDING, unassigned, and
// either has no agent preference or prefers the given agent. The tie-break
// is pure list order. Task IDs that resolve to no task are skipped; the
// validate command reports those separately.
func FindClaimableTask(l *ledger.Ledger, pair *ledger.TaskPair, agentID string) *ledger.Task {
	for _, id := range pair.Tasks {
		t := l.Task(id)
		if t == nil {
			continue
		}
		if t.Status != ledger.TaskPending || t.AssignedTo != "" {
			continue
		}
		if t.AgentPreference != "" && t.AgentPreference != agentID {
			continue
		}
		return t
	}
	return nil
}

// Claim transitions a PENDING task to IN_PROGRESS, assigns it to the agent,
// and appends an ASSIGNED history event.
func Claim(t *ledger.Task, agentID string) error {
	if t.AssignedTo != "" {
		return errors.NewLedgerError("cannot claim task",
			errors.ErrAlreadyClaimed).WithTaskID(t.ID)
	}
	if t.Status != ledger.TaskPending {
		return errors.NewLedgerError(
			fmt.Sprintf("cannot claim task in status %s", t.Status),
			errors.ErrInvalidTransition).WithTaskID(t.ID)
	}

	t.Status = ledger.TaskInProgress
	t.AssignedTo = agentID
	t.Record(ledger.EventAssigned, agentID, fmt.Sprintf("assigned to and claimed by %s", agentID))
	return nil
}

// Finalize transitions a task to a terminal status on behalf of the agent
// that claimed it.
//
// If the task's assignee no longer matches agentID, ErrTaskSuperseded is
// returned and the task is left untouched: this guards the race window where
// the lock was released during work and another agent reassigned the task.
// Finalizing an already-terminal task with the same status is an idempotent
// no-op (no duplicate history growth).
func Finalize(t *ledger.Task, final ledger.TaskStatus, agentID string) error {
	if !final.IsTerminal() {
		return errors.NewLedgerError(
			fmt.Sprintf("finalize requires a terminal status, got %s", final),
			errors.ErrInvalidTransition).WithTaskID(t.ID)
	}
	if t.AssignedTo != agentID {
		return errors.NewLedgerError("refusing to finalize",
			errors.ErrTaskSuperseded).WithTaskID(t.ID)
	}
	if t.Status == final {
		return nil
	}
	if t.Status.IsTerminal() {
		return errors.NewLedgerError(
			fmt.Sprintf("task already terminal with status %s", t.Status),
			errors.ErrInvalidTransition).WithTaskID(t.ID)
	}

	t.Status = final
	t.Record(ledger.EventStatusChanged, agentID, fmt.Sprintf("status changed to %s by %s", final, agentID))
	return nil
}

// AdvanceIfPairComplete checks whether every task referenced by the pair is
// COMPLETED. If so it marks the pair COMPLETED and pair-locked, then
// transitions the BLOCKED pair with the smallest sequence_index strictly
// greater than the completed pair's index to READY and unlocked.
//
// It returns whether the pair completed, and the pair that was unblocked
// (nil when none exists: the ledger is exhausted or has a sequencing gap,
// which validation reports separately).
func AdvanceIfPairComplete(l *ledger.Ledger, pair *ledger.TaskPair, agentID string) (completed bool, next *ledger.TaskPair) {
	if pair.Status == ledger.PairCompleted {
		return false, nil
	}

	for _, id := range pair.Tasks {
		t := l.Task(id)
		if t == nil || t.Status != ledger.TaskCompleted {
			return false, nil
		}
	}

	pair.Status = ledger.PairCompleted
	pair.PairLock = true
	pair.Record(ledger.EventStatusChanged, agentID, fmt.Sprintf("pair completed by %s", agentID))

	for _, p := range l.TaskPairs {
		if p.Status != ledger.PairBlocked || p.SequenceIndex <= pair.SequenceIndex {
			continue
		}
		if next == nil || p.SequenceIndex < next.SequenceIndex {
			next = p
		}
	}

	if next != nil {
		next.Status = ledger.PairReady
		next.PairLock = false
		next.Record(ledger.EventStatusChanged, agentID,
			fmt.Sprintf("advanced to READY by %s after pair %s completed", agentID, pair.PairID))
	}

	return true, next
}

// AdvanceNextBlocked manually unblocks a pair, backing the administrative
// advance command.
//
// Without force, the highest completed sequence_index is the ordering basis
// and the lowest BLOCKED pair above it is advanced; if no pair has completed
// yet, ErrNoCompletedPair is returned. With force, the lowest BLOCKED pair
// is advanced unconditionally (used to bootstrap the first pair).
//
// Returns nil (and no error) when there is no suitable BLOCKED pair.
func AdvanceNextBlocked(l *ledger.Ledger, force bool, agentID string) (*ledger.TaskPair, error) {
	basis := -1
	if !force {
		found := false
		for _, p := range l.TaskPairs {
			if p.Status == ledger.PairCompleted {
				found = true
				if p.SequenceIndex > basis {
					basis = p.SequenceIndex
				}
			}
		}
		if !found && len(l.TaskPairs) > 0 {
			return nil, errors.NewLedgerError(
				"no COMPLETED pair to determine the next one; use force to advance the lowest BLOCKED pair",
				errors.ErrNoCompletedPair)
		}
	}

	var candidate *ledger.TaskPair
	for _, p := range l.TaskPairs {
		if p.Status != ledger.PairBlocked {
			continue
		}
		if !force && p.SequenceIndex <= basis {
			continue
		}
		if candidate == nil || p.SequenceIndex < candidate.SequenceIndex {
			candidate = p
		}
	}

	if candidate == nil {
		return nil, nil
	}

	candidate.Status = ledger.PairReady
	candidate.PairLock = false
	candidate.Record(ledger.EventStatusChanged, agentID,
		fmt.Sprintf("manually advanced to READY by %s", agentID))
	return candidate, nil
}
