package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lockstepd/lockstep/internal/config"
	"github.com/lockstepd/lockstep/internal/errors"
	"github.com/lockstepd/lockstep/internal/ledger"
)

var (
	addTaskID     string
	addTaskDesc   string
	addTaskAgent  string
	addTaskPairID string
)

var addTaskCmd = &cobra.Command{
	Use:   "add-task",
	Short: "Add a task to the ledger",
	Long: `Add a single task to the ledger. The task starts PENDING and is not
claimable until it belongs to a READY pair. Use --agent to restrict the
task to a preferred agent.`,
	RunE: runAddTask,
}

func init() {
	addTaskCmd.Flags().StringVar(&addTaskID, "id", "", "task id (default: generated)")
	addTaskCmd.Flags().StringVar(&addTaskDesc, "desc", "", "task description")
	addTaskCmd.Flags().StringVar(&addTaskAgent, "agent", "", "preferred agent id (empty accepts any agent)")
	addTaskCmd.Flags().StringVar(&addTaskPairID, "pair", "", "existing pair id to associate the task with")
	_ = addTaskCmd.MarkFlagRequired("desc")
	rootCmd.AddCommand(addTaskCmd)
}

func runAddTask(cmd *cobra.Command, args []string) error {
	return withLedgerLock(func(cfg *config.Config, store *ledger.Store) error {
		led, err := store.Read()
		if err != nil {
			return err
		}

		id := addTaskID
		if id == "" {
			id = fmt.Sprintf("task_%s", uuid.NewString()[:8])
		}
		if led.HasID(id) {
			return errors.NewAlreadyExistsError("task", id)
		}
		if addTaskPairID != "" && led.Pair(addTaskPairID) == nil {
			return errors.NewNotFoundError("pair", addTaskPairID)
		}

		task := ledger.NewTask(id, addTaskDesc, addTaskAgent, cliAgentID())
		if addTaskPairID != "" {
			task.PairID = addTaskPairID
		}
		led.Tasks = append(led.Tasks, task)

		if err := store.Write(led); err != nil {
			return err
		}

		fmt.Printf("Added task %s\n", task.ID)
		if task.AgentPreference != "" {
			fmt.Printf("Preferred agent: %s\n", task.AgentPreference)
		}
		return nil
	})
}
