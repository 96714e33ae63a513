package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lockstepd/lockstep/internal/config"
	"github.com/lockstepd/lockstep/internal/errors"
	"github.com/lockstepd/lockstep/internal/ledger"
)

var (
	addPairID     string
	addPairTask1  string
	addPairTask2  string
	addPairSeq    int
	addPairStatus string
	addPairLocked bool
)

var addPairCmd = &cobra.Command{
	Use:   "add-pair",
	Short: "Group two existing tasks into a sequenced pair",
	Long: `Group two existing tasks into a pair at the given sequence index.
Pairs are processed in increasing sequence order; a BLOCKED pair waits for
the preceding pair to complete, a READY pair is immediately claimable.
Both tasks are updated to reference the new pair.`,
	RunE: runAddPair,
}

func init() {
	addPairCmd.Flags().StringVar(&addPairID, "id", "", "pair id (default: generated)")
	addPairCmd.Flags().StringVar(&addPairTask1, "task1", "", "first task id")
	addPairCmd.Flags().StringVar(&addPairTask2, "task2", "", "second task id")
	addPairCmd.Flags().IntVar(&addPairSeq, "seq", 0, "sequence index for pipeline ordering")
	addPairCmd.Flags().StringVar(&addPairStatus, "status", "BLOCKED", "initial pair status (BLOCKED or READY)")
	addPairCmd.Flags().BoolVar(&addPairLocked, "locked", false, "override the pair lock derived from status")
	_ = addPairCmd.MarkFlagRequired("task1")
	_ = addPairCmd.MarkFlagRequired("task2")
	_ = addPairCmd.MarkFlagRequired("seq")
	rootCmd.AddCommand(addPairCmd)
}

func runAddPair(cmd *cobra.Command, args []string) error {
	return withLedgerLock(func(cfg *config.Config, store *ledger.Store) error {
		led, err := store.Read()
		if err != nil {
			return err
		}

		id := addPairID
		if id == "" {
			id = fmt.Sprintf("pair_%s", uuid.NewString()[:8])
		}
		if led.HasID(id) {
			return errors.NewAlreadyExistsError("pair", id)
		}

		if addPairTask1 == addPairTask2 {
			return errors.NewValidationError("pair must reference two distinct tasks").
				WithField("task2").WithValue(addPairTask2)
		}
		for _, tid := range []string{addPairTask1, addPairTask2} {
			if led.Task(tid) == nil {
				return errors.NewNotFoundError("task", tid)
			}
		}

		status := ledger.PairStatus(strings.ToUpper(addPairStatus))
		if status != ledger.PairBlocked && status != ledger.PairReady {
			return errors.NewValidationError("pair status must be BLOCKED or READY").
				WithField("status").WithValue(addPairStatus)
		}

		for _, p := range led.TaskPairs {
			if p.SequenceIndex == addPairSeq {
				fmt.Fprintf(os.Stderr, "Warning: sequence_index %d is already used by pair %s; ordering may be non-deterministic\n",
					addPairSeq, p.PairID)
			}
		}

		pair := ledger.NewPair(id, addPairTask1, addPairTask2, addPairSeq, status, cliAgentID())
		if cmd.Flags().Changed("locked") {
			pair.PairLock = addPairLocked
		}
		led.TaskPairs = append(led.TaskPairs, pair)

		for _, tid := range pair.Tasks {
			t := led.Task(tid)
			if t.PairID == id {
				continue
			}
			if t.PairID != "" {
				fmt.Fprintf(os.Stderr, "Warning: task %s was in pair %s, moving to %s\n", tid, t.PairID, id)
			}
			t.PairID = id
			t.Record(ledger.EventUpdated, cliAgentID(), fmt.Sprintf("associated with pair %s", id))
		}

		if err := store.Write(led); err != nil {
			return err
		}

		fmt.Printf("Added pair %s (sequence %d, %s)\n", pair.PairID, pair.SequenceIndex, pair.Status)
		return nil
	})
}
