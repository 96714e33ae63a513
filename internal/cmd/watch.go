package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lockstepd/lockstep/internal/config"
	"github.com/lockstepd/lockstep/internal/ledger"
	"github.com/lockstepd/lockstep/internal/logging"
	"github.com/lockstepd/lockstep/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the ledger and print state changes",
	Long: `Watch the ledger file and print a one-line summary whenever it changes.
Watching is read-only and never takes the ledger lock.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logging.NopLogger()
	store := ledger.NewStore(cfg.Paths.LedgerFile, log)
	if !store.Exists() {
		return fmt.Errorf("ledger file %s does not exist; run 'lockstep init' first", store.Path())
	}

	w, err := watch.New(store, log)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// Initial state before any change arrives.
	if led, err := store.Read(); err == nil {
		printSummary(watch.Summarize(led))
	}

	if err := w.Start(printSummary); err != nil {
		_ = w.Stop()
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return w.Stop()
}

func printSummary(s watch.Summary) {
	active := s.ActivePair
	if active == "" {
		active = "none"
	}
	fmt.Printf("%s  tasks: %d pending / %d in progress / %d completed / %d failed  pairs: %d blocked / %d ready / %d completed  active: %s\n",
		dimStyle.Render(time.Now().Format("15:04:05")),
		s.Tasks[ledger.TaskPending],
		s.Tasks[ledger.TaskInProgress],
		s.Tasks[ledger.TaskCompleted],
		s.Tasks[ledger.TaskFailed],
		s.Pairs[ledger.PairBlocked],
		s.Pairs[ledger.PairReady],
		s.Pairs[ledger.PairCompleted],
		active)
}
