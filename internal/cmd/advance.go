package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lockstepd/lockstep/internal/config"
	"github.com/lockstepd/lockstep/internal/ledger"
	"github.com/lockstepd/lockstep/internal/pipeline"
)

var advanceForce bool

var advanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Manually advance the next BLOCKED pair to READY",
	Long: `Advance the next BLOCKED pair to READY. Without --force the ordering
basis is the highest completed sequence index, so this only repairs a
pipeline that stalled after a completion. With --force the lowest BLOCKED
pair is advanced unconditionally, which also bootstraps a ledger whose
pairs were all created BLOCKED.`,
	RunE: runAdvance,
}

func init() {
	advanceCmd.Flags().BoolVar(&advanceForce, "force", false, "advance the lowest BLOCKED pair regardless of completions")
	rootCmd.AddCommand(advanceCmd)
}

func runAdvance(cmd *cobra.Command, args []string) error {
	return withLedgerLock(func(cfg *config.Config, store *ledger.Store) error {
		led, err := store.Read()
		if err != nil {
			return err
		}

		pair, err := pipeline.AdvanceNextBlocked(led, advanceForce, cliAgentID())
		if err != nil {
			return err
		}
		if pair == nil {
			fmt.Println("No BLOCKED pair to advance")
			return nil
		}

		if err := store.Write(led); err != nil {
			return err
		}

		fmt.Printf("Advanced pair %s (sequence %d) to READY\n", pair.PairID, pair.SequenceIndex)
		return nil
	})
}
