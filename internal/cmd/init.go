package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lockstepd/lockstep/internal/config"
	"github.com/lockstepd/lockstep/internal/errors"
	"github.com/lockstepd/lockstep/internal/ledger"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty task ledger",
	Long: `Create an empty ledger file at the configured path.
Refuses to overwrite an existing ledger unless --force is given.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing ledger")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	return withLedgerLock(func(cfg *config.Config, store *ledger.Store) error {
		if store.Exists() && !initForce {
			return fmt.Errorf("ledger already exists at %s (use --force to overwrite)", store.Path())
		}

		if err := store.Write(ledger.New()); err != nil {
			return errors.Wrap(err, "failed to initialize ledger")
		}

		fmt.Printf("Initialized empty ledger at %s\n", store.Path())
		return nil
	})
}
