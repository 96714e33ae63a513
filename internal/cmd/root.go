package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lockstepd/lockstep/internal/config"
	"github.com/lockstepd/lockstep/internal/errors"
	"github.com/lockstepd/lockstep/internal/ledger"
	"github.com/lockstepd/lockstep/internal/lockfile"
	"github.com/lockstepd/lockstep/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "lockstep",
	Short: "File-based coordination for paired agent tasks",
	Long: `Lockstep coordinates multiple agent processes working through a shared
task ledger. Tasks are grouped into pairs that advance in strict sequence:
a pair's two tasks are worked independently, and the next pair unblocks
only when both complete. All coordination happens through two files, the
JSON ledger and an advisory lock file, so agents need nothing but a shared
directory.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/lockstep/config.yaml)")
	rootCmd.PersistentFlags().String("ledger", "", "path to the task ledger file")
	rootCmd.PersistentFlags().String("lock-file", "", "path to the advisory lock file")
	rootCmd.PersistentFlags().Duration("stale-timeout", 0, "age beyond which a lock file is presumed abandoned")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("paths.ledger_file", rootCmd.PersistentFlags().Lookup("ledger"))
	_ = viper.BindPFlag("paths.lock_file", rootCmd.PersistentFlags().Lookup("lock-file"))
	_ = viper.BindPFlag("lock.stale_timeout", rootCmd.PersistentFlags().Lookup("stale-timeout"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/lockstep")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("LOCKSTEP")
	// Replace dots with underscores for nested keys in env vars
	// e.g., LOCKSTEP_PATHS_LEDGER_FILE for paths.ledger_file
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// cliAgentID identifies administrative commands in lock records and history
// events. Each invocation is its own process, so the PID disambiguates
// concurrent CLI runs.
func cliAgentID() string {
	return fmt.Sprintf("cli_user_%d", os.Getpid())
}

// withLedgerLock loads config, takes the advisory lock with the short
// administrative budget, and runs fn with a store over the ledger file. The
// lock is released when fn returns.
func withLedgerLock(fn func(cfg *config.Config, store *ledger.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logging.NopLogger()
	lock := lockfile.NewManager(cfg.Paths.LockFile, cliAgentID(), log)
	if !lock.Acquire(cfg.Lock.CLIMaxWait, cfg.Lock.CLIRetryInterval, cfg.Lock.StaleTimeout) {
		return errors.NewTimeoutError(
			fmt.Sprintf("waiting for ledger lock at %s", cfg.Paths.LockFile),
			cfg.Lock.CLIMaxWait).WithCause(errors.ErrLockNotAcquired)
	}
	defer lock.Release()

	return fn(cfg, ledger.NewStore(cfg.Paths.LedgerFile, log))
}
