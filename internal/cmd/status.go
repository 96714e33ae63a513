package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lockstepd/lockstep/internal/config"
	"github.com/lockstepd/lockstep/internal/errors"
	"github.com/lockstepd/lockstep/internal/ledger"
	"github.com/lockstepd/lockstep/internal/logging"
	"github.com/lockstepd/lockstep/internal/pipeline"
)

var (
	statusPairID string
	statusTaskID string
	statusJSON   bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ledger status",
	Long: `Display the current state of the ledger: all pairs in sequence order
with their tasks, or a single pair or task. Status is read-only and never
takes the ledger lock.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPairID, "pair", "", "show a single pair and its tasks")
	statusCmd.Flags().StringVar(&statusTaskID, "task", "", "show a single task")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the raw ledger document as JSON")
	statusCmd.MarkFlagsMutuallyExclusive("pair", "task", "json")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store := ledger.NewStore(cfg.Paths.LedgerFile, logging.NopLogger())
	led, err := store.Read()
	if err != nil {
		return err
	}

	if statusJSON {
		data, err := json.MarshalIndent(led, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal ledger: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if statusTaskID != "" {
		t := led.Task(statusTaskID)
		if t == nil {
			return errors.NewNotFoundError("task", statusTaskID)
		}
		printTask(t, "")
		return nil
	}

	if statusPairID != "" {
		p := led.Pair(statusPairID)
		if p == nil {
			return errors.NewNotFoundError("pair", statusPairID)
		}
		printPair(led, p)
		return nil
	}

	printLedger(led)

	if active := pipeline.FindActivePair(led); active != nil {
		fmt.Printf("\nActive pair: %s (sequence %d)\n", active.PairID, active.SequenceIndex)
	} else {
		fmt.Println("\nNo active pair")
	}
	return nil
}
