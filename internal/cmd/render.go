package cmd

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/lockstepd/lockstep/internal/ledger"
)

// Status badge styles. Colors follow traffic-light conventions: grey for
// waiting states, yellow for in-flight, green for done, red for failed.
var (
	pendingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	inProgressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	completedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	readyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	headerStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func renderTaskStatus(s ledger.TaskStatus) string {
	switch s {
	case ledger.TaskPending:
		return pendingStyle.Render(s.String())
	case ledger.TaskInProgress:
		return inProgressStyle.Render(s.String())
	case ledger.TaskCompleted:
		return completedStyle.Render(s.String())
	case ledger.TaskFailed:
		return failedStyle.Render(s.String())
	default:
		return s.String()
	}
}

func renderPairStatus(s ledger.PairStatus) string {
	switch s {
	case ledger.PairBlocked:
		return pendingStyle.Render(s.String())
	case ledger.PairReady:
		return readyStyle.Render(s.String())
	case ledger.PairCompleted:
		return completedStyle.Render(s.String())
	default:
		return s.String()
	}
}

// printLedger prints all pairs in sequence order with their tasks, then any
// tasks that belong to no pair.
func printLedger(led *ledger.Ledger) {
	if len(led.Tasks) == 0 && len(led.TaskPairs) == 0 {
		fmt.Println("Ledger is empty")
		return
	}

	pairs := make([]*ledger.TaskPair, len(led.TaskPairs))
	copy(pairs, led.TaskPairs)
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].SequenceIndex < pairs[j].SequenceIndex
	})

	fmt.Printf("%s\n\n", headerStyle.Render(fmt.Sprintf("Pairs (%d)", len(pairs))))
	for _, p := range pairs {
		printPair(led, p)
		fmt.Println()
	}

	var unpaired []*ledger.Task
	for _, t := range led.Tasks {
		if t.PairID == "" {
			unpaired = append(unpaired, t)
		}
	}
	if len(unpaired) > 0 {
		fmt.Printf("%s\n\n", headerStyle.Render(fmt.Sprintf("Unpaired tasks (%d)", len(unpaired))))
		for _, t := range unpaired {
			printTask(t, "")
		}
	}
}

func printPair(led *ledger.Ledger, p *ledger.TaskPair) {
	lock := ""
	if p.PairLock {
		lock = dimStyle.Render(" [locked]")
	}
	fmt.Printf("[%d] %s  %s%s\n", p.SequenceIndex, p.PairID, renderPairStatus(p.Status), lock)
	for _, id := range p.Tasks {
		t := led.Task(id)
		if t == nil {
			fmt.Printf("    %s  %s\n", id, failedStyle.Render("MISSING"))
			continue
		}
		printTask(t, "    ")
	}
}

func printTask(t *ledger.Task, indent string) {
	fmt.Printf("%s%s  %s\n", indent, t.ID, renderTaskStatus(t.Status))
	fmt.Printf("%s  Description: %s\n", indent, t.Description)
	if t.AssignedTo != "" {
		fmt.Printf("%s  Assigned to: %s\n", indent, t.AssignedTo)
	}
	if t.AgentPreference != "" {
		fmt.Printf("%s  Preferred agent: %s\n", indent, t.AgentPreference)
	}
	if !t.UpdatedAt.IsZero() {
		fmt.Printf("%s  Updated: %s\n", indent, dimStyle.Render(t.UpdatedAt.Format("2006-01-02 15:04:05")))
	}
}
