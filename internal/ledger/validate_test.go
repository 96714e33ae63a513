package ledger_test

import (
	"strings"
	"testing"

	"github.com/lockstepd/lockstep/internal/ledger"
	"github.com/lockstepd/lockstep/internal/testutil"
)

func findIssue(issues []ledger.Issue, level ledger.IssueLevel, substr string) bool {
	for _, i := range issues {
		if i.Level == level && strings.Contains(i.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidateCleanLedger(t *testing.T) {
	issues := ledger.Validate(testutil.SeedTwoPairLedger(t))
	if len(issues) != 0 {
		t.Errorf("clean ledger produced issues: %+v", issues)
	}
}

func TestValidateFindings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(l *ledger.Ledger)
		level  ledger.IssueLevel
		substr string
	}{
		{
			name: "duplicate task id",
			mutate: func(l *ledger.Ledger) {
				l.Tasks = append(l.Tasks, ledger.NewTask("t1", "dup", "", "x"))
			},
			level:  ledger.IssueError,
			substr: "duplicate task id",
		},
		{
			name: "unknown task status",
			mutate: func(l *ledger.Ledger) {
				l.Task("t1").Status = "WAT"
			},
			level:  ledger.IssueError,
			substr: "unknown status",
		},
		{
			name: "in progress without assignee",
			mutate: func(l *ledger.Ledger) {
				l.Task("t1").Status = ledger.TaskInProgress
			},
			level:  ledger.IssueError,
			substr: "no assignee",
		},
		{
			name: "pending with assignee",
			mutate: func(l *ledger.Ledger) {
				l.Task("t1").AssignedTo = "agent-a"
			},
			level:  ledger.IssueError,
			substr: "PENDING but assigned",
		},
		{
			name: "orphaned pair reference",
			mutate: func(l *ledger.Ledger) {
				l.Task("t1").PairID = "pair-gone"
			},
			level:  ledger.IssueError,
			substr: "orphaned pair_id",
		},
		{
			name: "duplicate pair id",
			mutate: func(l *ledger.Ledger) {
				l.TaskPairs = append(l.TaskPairs,
					ledger.NewPair("pair-1", "t3", "t4", 9, ledger.PairBlocked, "x"))
			},
			level:  ledger.IssueError,
			substr: "duplicate pair id",
		},
		{
			name: "pair with wrong task count",
			mutate: func(l *ledger.Ledger) {
				l.Pair("pair-1").Tasks = []string{"t1"}
			},
			level:  ledger.IssueError,
			substr: "exactly two tasks",
		},
		{
			name: "pair referencing same task twice",
			mutate: func(l *ledger.Ledger) {
				l.Pair("pair-1").Tasks = []string{"t1", "t1"}
			},
			level:  ledger.IssueError,
			substr: "same task twice",
		},
		{
			name: "pair referencing missing task",
			mutate: func(l *ledger.Ledger) {
				l.Pair("pair-1").Tasks = []string{"t1", "t-missing"}
			},
			level:  ledger.IssueError,
			substr: "non-existent task",
		},
		{
			name: "duplicate sequence index is only a warning",
			mutate: func(l *ledger.Ledger) {
				l.Pair("pair-2").SequenceIndex = 1
			},
			level:  ledger.IssueWarning,
			substr: "duplicate sequence_index",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := testutil.SeedTwoPairLedger(t)
			tc.mutate(l)

			issues := ledger.Validate(l)
			if !findIssue(issues, tc.level, tc.substr) {
				t.Errorf("expected %s issue containing %q, got %+v", tc.level, tc.substr, issues)
			}
		})
	}
}

func TestHasErrorsIgnoresWarnings(t *testing.T) {
	l := testutil.SeedTwoPairLedger(t)
	l.Pair("pair-2").SequenceIndex = 1

	issues := ledger.Validate(l)
	if len(issues) == 0 {
		t.Fatal("expected a warning for the duplicate sequence index")
	}
	if ledger.HasErrors(issues) {
		t.Error("HasErrors treated a warning as an error")
	}
}
