package ledger

import "fmt"

// IssueLevel classifies a validation finding.
type IssueLevel string

const (
	// IssueError marks findings that make the ledger unsafe to process.
	IssueError IssueLevel = "error"

	// IssueWarning marks findings that may cause surprising behavior but do
	// not stop agents from making progress.
	IssueWarning IssueLevel = "warning"
)

// Issue is a single validation finding. Validation never mutates the ledger.
type Issue struct {
	Level   IssueLevel
	Message string
}

func errorf(format string, args ...any) Issue {
	return Issue{Level: IssueError, Message: fmt.Sprintf(format, args...)}
}

func warnf(format string, args ...any) Issue {
	return Issue{Level: IssueWarning, Message: fmt.Sprintf(format, args...)}
}

// Validate checks ledger integrity: duplicate IDs, orphaned pair references,
// malformed pair task lists, duplicate sequence indices, and status/assignee
// invariants. It reports findings without repairing anything.
func Validate(l *Ledger) []Issue {
	var issues []Issue

	taskIDs := make(map[string]bool)
	for _, t := range l.Tasks {
		if t.ID == "" {
			issues = append(issues, errorf("task with missing id (description %q)", t.Description))
			continue
		}
		if taskIDs[t.ID] {
			issues = append(issues, errorf("duplicate task id: %s", t.ID))
		}
		taskIDs[t.ID] = true

		if !t.Status.Valid() {
			issues = append(issues, errorf("task %s has unknown status %q", t.ID, t.Status))
		}
		if t.Status == TaskInProgress && t.AssignedTo == "" {
			issues = append(issues, errorf("task %s is IN_PROGRESS but has no assignee", t.ID))
		}
		if t.Status == TaskPending && t.AssignedTo != "" {
			issues = append(issues, errorf("task %s is PENDING but assigned to %s", t.ID, t.AssignedTo))
		}
		if t.PairID != "" && l.Pair(t.PairID) == nil {
			issues = append(issues, errorf("task %s has orphaned pair_id %s (pair does not exist)", t.ID, t.PairID))
		}
	}

	pairIDs := make(map[string]bool)
	seqIndices := make(map[int][]string)
	for _, p := range l.TaskPairs {
		if p.PairID == "" {
			issues = append(issues, errorf("pair with missing pair_id (sequence %d)", p.SequenceIndex))
			continue
		}
		if pairIDs[p.PairID] {
			issues = append(issues, errorf("duplicate pair id: %s", p.PairID))
		}
		pairIDs[p.PairID] = true

		if !p.Status.Valid() {
			issues = append(issues, errorf("pair %s has unknown status %q", p.PairID, p.Status))
		}

		if len(p.Tasks) != 2 {
			issues = append(issues, errorf("pair %s must reference exactly two tasks, found %d", p.PairID, len(p.Tasks)))
		} else if p.Tasks[0] == p.Tasks[1] {
			issues = append(issues, errorf("pair %s references the same task twice: %s", p.PairID, p.Tasks[0]))
		}
		for _, id := range p.Tasks {
			if !taskIDs[id] {
				issues = append(issues, errorf("pair %s references non-existent task id: %s", p.PairID, id))
			}
		}

		seqIndices[p.SequenceIndex] = append(seqIndices[p.SequenceIndex], p.PairID)
	}

	for idx, ids := range seqIndices {
		if len(ids) > 1 {
			issues = append(issues, warnf("duplicate sequence_index %d used by pairs: %v; ordering may be non-deterministic", idx, ids))
		}
	}

	return issues
}

// HasErrors reports whether any finding is at error level.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Level == IssueError {
			return true
		}
	}
	return false
}
