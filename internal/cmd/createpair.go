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
	createPairDesc1  string
	createPairDesc2  string
	createPairAgent1 string
	createPairAgent2 string
	createPairSeq    int
	createPairPrefix string
	createPairStatus string
)

var createPairCmd = &cobra.Command{
	Use:   "create-pair",
	Short: "Create two tasks and their pair in one step",
	Long: `Create two tasks and the pair that links them in a single write.
IDs are derived from --prefix as <prefix>_t1, <prefix>_t2 and <prefix>_p;
without a prefix a random one is generated.`,
	RunE: runCreatePair,
}

func init() {
	createPairCmd.Flags().StringVar(&createPairDesc1, "desc1", "", "description for the first task")
	createPairCmd.Flags().StringVar(&createPairDesc2, "desc2", "", "description for the second task")
	createPairCmd.Flags().StringVar(&createPairAgent1, "agent1", "", "preferred agent for the first task")
	createPairCmd.Flags().StringVar(&createPairAgent2, "agent2", "", "preferred agent for the second task")
	createPairCmd.Flags().IntVar(&createPairSeq, "seq", 0, "sequence index for pipeline ordering")
	createPairCmd.Flags().StringVar(&createPairPrefix, "prefix", "", "id prefix for the two tasks and the pair")
	createPairCmd.Flags().StringVar(&createPairStatus, "status", "BLOCKED", "initial pair status (BLOCKED or READY)")
	_ = createPairCmd.MarkFlagRequired("desc1")
	_ = createPairCmd.MarkFlagRequired("desc2")
	_ = createPairCmd.MarkFlagRequired("seq")
	rootCmd.AddCommand(createPairCmd)
}

func runCreatePair(cmd *cobra.Command, args []string) error {
	return withLedgerLock(func(cfg *config.Config, store *ledger.Store) error {
		led, err := store.Read()
		if err != nil {
			return err
		}

		prefix := createPairPrefix
		if prefix == "" {
			prefix = fmt.Sprintf("p%s", uuid.NewString()[:8])
		}
		taskID1 := prefix + "_t1"
		taskID2 := prefix + "_t2"
		pairID := prefix + "_p"

		for _, id := range []string{taskID1, taskID2, pairID} {
			if led.HasID(id) {
				return errors.NewAlreadyExistsError("id", id)
			}
		}

		status := ledger.PairStatus(strings.ToUpper(createPairStatus))
		if status != ledger.PairBlocked && status != ledger.PairReady {
			return errors.NewValidationError("pair status must be BLOCKED or READY").
				WithField("status").WithValue(createPairStatus)
		}

		for _, p := range led.TaskPairs {
			if p.SequenceIndex == createPairSeq {
				fmt.Fprintf(os.Stderr, "Warning: sequence_index %d is already used by pair %s; ordering may be non-deterministic\n",
					createPairSeq, p.PairID)
			}
		}

		creator := cliAgentID()
		t1 := ledger.NewTask(taskID1, createPairDesc1, createPairAgent1, creator)
		t2 := ledger.NewTask(taskID2, createPairDesc2, createPairAgent2, creator)
		t1.PairID = pairID
		t2.PairID = pairID
		pair := ledger.NewPair(pairID, taskID1, taskID2, createPairSeq, status, creator)

		led.Tasks = append(led.Tasks, t1, t2)
		led.TaskPairs = append(led.TaskPairs, pair)

		if err := store.Write(led); err != nil {
			return err
		}

		fmt.Printf("Created pair %s (sequence %d, %s)\n", pair.PairID, pair.SequenceIndex, pair.Status)
		fmt.Printf("  %s: %s\n", t1.ID, t1.Description)
		fmt.Printf("  %s: %s\n", t2.ID, t2.Description)
		return nil
	})
}
