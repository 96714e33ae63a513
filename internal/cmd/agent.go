package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lockstepd/lockstep/internal/agent"
	"github.com/lockstepd/lockstep/internal/config"
	"github.com/lockstepd/lockstep/internal/errors"
	"github.com/lockstepd/lockstep/internal/ledger"
	"github.com/lockstepd/lockstep/internal/lockfile"
	"github.com/lockstepd/lockstep/internal/logging"
)

var (
	agentCycles        int
	agentInterval      time.Duration
	agentMaxWait       time.Duration
	agentRetryInterval time.Duration
)

var agentCmd = &cobra.Command{
	Use:   "agent <agent-id>",
	Short: "Run the agent processing loop",
	Long: `Run the claim-work-finalize loop as the given agent. Each cycle the
agent takes the ledger lock, claims one task from the active pair,
releases the lock while the work runs, then re-acquires it to record the
outcome and advance the pair barrier. The loop runs until interrupted
unless --cycles bounds it.`,
	Args: cobra.ExactArgs(1),
	RunE: runAgent,
}

func init() {
	agentCmd.Flags().IntVar(&agentCycles, "cycles", 0, "number of cycles to run (0 runs until interrupted)")
	agentCmd.Flags().DurationVar(&agentInterval, "interval", 0, "sleep between cycles (default from config)")
	agentCmd.Flags().DurationVar(&agentMaxWait, "max-wait", 0, "lock acquisition budget per attempt (default from config)")
	agentCmd.Flags().DurationVar(&agentRetryInterval, "retry-interval", 0, "sleep between lock attempts (default from config)")
	rootCmd.AddCommand(agentCmd)
}

func runAgent(cmd *cobra.Command, args []string) error {
	agentID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return errors.Wrapf(err, "failed to create logger for agent %s", agentID)
	}
	defer log.Close()

	store := ledger.NewStore(cfg.Paths.LedgerFile, log)
	if !store.Exists() {
		return fmt.Errorf("ledger file %s does not exist; run 'lockstep init' first", store.Path())
	}
	lock := lockfile.NewManager(cfg.Paths.LockFile, agentID, log)

	worker := agent.NewSimulatedWorker()
	worker.MinDuration = cfg.Agent.WorkMin
	worker.MaxDuration = cfg.Agent.WorkMax
	worker.SuccessRate = cfg.Agent.SuccessRate

	cycles := cfg.Agent.Cycles
	if cmd.Flags().Changed("cycles") {
		cycles = agentCycles
	}

	// Config supplies the baseline; flags override when set.
	opts := []agent.Option{
		agent.WithInterval(cfg.Agent.Interval),
		agent.WithMaxWait(cfg.Lock.MaxWait),
		agent.WithRetryInterval(cfg.Lock.RetryInterval),
		agent.WithStaleTimeout(cfg.Lock.StaleTimeout),
	}
	if agentInterval > 0 {
		opts = append(opts, agent.WithInterval(agentInterval))
	}
	if agentMaxWait > 0 {
		opts = append(opts, agent.WithMaxWait(agentMaxWait))
	}
	if agentRetryInterval > 0 {
		opts = append(opts, agent.WithRetryInterval(agentRetryInterval))
	}

	a := agent.New(agentID, store, lock, worker, log, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Agent %s processing ledger %s (interrupt to stop)\n", agentID, store.Path())
	a.Run(ctx, cycles)
	return nil
}
