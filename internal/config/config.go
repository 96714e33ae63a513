package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete Lockstep configuration
type Config struct {
	Paths   PathsConfig   `mapstructure:"paths"`
	Lock    LockConfig    `mapstructure:"lock"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PathsConfig locates the two shared files
type PathsConfig struct {
	// LedgerFile is the path to the shared task ledger (default: tasks.json)
	LedgerFile string `mapstructure:"ledger_file"`
	// LockFile is the path to the advisory lock file (default: tasks.lock)
	LockFile string `mapstructure:"lock_file"`
}

// LockConfig tunes the advisory lock protocol
type LockConfig struct {
	// StaleTimeout is the age beyond which a lock file is presumed abandoned (default: 5m)
	StaleTimeout time.Duration `mapstructure:"stale_timeout"`
	// MaxWait is the agent's lock acquisition budget per attempt (default: 60s)
	MaxWait time.Duration `mapstructure:"max_wait"`
	// RetryInterval is the agent's sleep between acquisition attempts (default: 5s)
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	// CLIMaxWait is the shorter acquisition budget used by administrative commands (default: 15s)
	CLIMaxWait time.Duration `mapstructure:"cli_max_wait"`
	// CLIRetryInterval is the administrative retry sleep (default: 1s)
	CLIRetryInterval time.Duration `mapstructure:"cli_retry_interval"`
}

// AgentConfig tunes the agent processing loop
type AgentConfig struct {
	// Interval is the sleep between processing cycles (default: 10s)
	Interval time.Duration `mapstructure:"interval"`
	// Cycles bounds the number of cycles; 0 runs until interrupted
	Cycles int `mapstructure:"cycles"`
	// WorkMin and WorkMax bound the simulated worker's duration
	WorkMin time.Duration `mapstructure:"work_min"`
	WorkMax time.Duration `mapstructure:"work_max"`
	// SuccessRate is the simulated worker's success probability in [0, 1]
	SuccessRate float64 `mapstructure:"success_rate"`
}

// LoggingConfig controls structured log output
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR (default: INFO)
	Level string `mapstructure:"level"`
	// Dir is the log directory; empty logs to stderr
	Dir string `mapstructure:"dir"`
}

// SetDefaults registers default values with viper so they're available even
// without a config file.
func SetDefaults() {
	viper.SetDefault("paths.ledger_file", "tasks.json")
	viper.SetDefault("paths.lock_file", "tasks.lock")

	viper.SetDefault("lock.stale_timeout", "5m")
	viper.SetDefault("lock.max_wait", "60s")
	viper.SetDefault("lock.retry_interval", "5s")
	viper.SetDefault("lock.cli_max_wait", "15s")
	viper.SetDefault("lock.cli_retry_interval", "1s")

	viper.SetDefault("agent.interval", "10s")
	viper.SetDefault("agent.cycles", 0)
	viper.SetDefault("agent.work_min", "1s")
	viper.SetDefault("agent.work_max", "3s")
	viper.SetDefault("agent.success_rate", 0.9)

	viper.SetDefault("logging.level", "INFO")
	viper.SetDefault("logging.dir", "")
}

// Load unmarshals the current viper state into a validated Config.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigDir returns the directory where the config file lives.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "lockstep")
}
