package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lockstepd/lockstep/internal/config"
	"github.com/lockstepd/lockstep/internal/ledger"
	"github.com/lockstepd/lockstep/internal/logging"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check ledger integrity",
	Long: `Check the ledger for integrity problems: duplicate IDs, orphaned pair
references, malformed pairs, duplicate sequence indices, and status or
assignee inconsistencies. Nothing is repaired; findings are reported and
the command fails when any error-level finding exists.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store := ledger.NewStore(cfg.Paths.LedgerFile, logging.NopLogger())
	led, err := store.Read()
	if err != nil {
		return err
	}

	issues := ledger.Validate(led)
	if len(issues) == 0 {
		fmt.Printf("Ledger is valid (%d tasks, %d pairs)\n", len(led.Tasks), len(led.TaskPairs))
		return nil
	}

	var errorCount int
	for _, issue := range issues {
		switch issue.Level {
		case ledger.IssueError:
			errorCount++
			fmt.Printf("%s %s\n", failedStyle.Render("error:"), issue.Message)
		case ledger.IssueWarning:
			fmt.Printf("%s %s\n", inProgressStyle.Render("warning:"), issue.Message)
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("ledger validation failed with %d error(s)", errorCount)
	}
	fmt.Printf("Ledger is valid with %d warning(s)\n", len(issues))
	return nil
}
