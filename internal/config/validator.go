package config

import (
	"strings"

	"github.com/lockstepd/lockstep/internal/errors"
	"github.com/lockstepd/lockstep/internal/logging"
)

// Validate checks a Config for values that would break the coordination
// protocol rather than merely being unusual.
func Validate(cfg *Config) error {
	if cfg.Paths.LedgerFile == "" {
		return errors.NewValidationError("ledger file path cannot be empty").
			WithField("paths.ledger_file")
	}
	if cfg.Paths.LockFile == "" {
		return errors.NewValidationError("lock file path cannot be empty").
			WithField("paths.lock_file")
	}
	if cfg.Paths.LedgerFile == cfg.Paths.LockFile {
		return errors.NewValidationError("ledger and lock file paths must differ").
			WithField("paths.lock_file").WithValue(cfg.Paths.LockFile)
	}

	if cfg.Lock.StaleTimeout <= 0 {
		return errors.NewValidationError("stale timeout must be positive").
			WithField("lock.stale_timeout").WithValue(cfg.Lock.StaleTimeout)
	}
	if cfg.Lock.MaxWait <= 0 {
		return errors.NewValidationError("max wait must be positive").
			WithField("lock.max_wait").WithValue(cfg.Lock.MaxWait)
	}
	if cfg.Lock.RetryInterval <= 0 {
		return errors.NewValidationError("retry interval must be positive").
			WithField("lock.retry_interval").WithValue(cfg.Lock.RetryInterval)
	}
	if cfg.Lock.CLIMaxWait <= 0 {
		return errors.NewValidationError("cli max wait must be positive").
			WithField("lock.cli_max_wait").WithValue(cfg.Lock.CLIMaxWait)
	}
	if cfg.Lock.CLIRetryInterval <= 0 {
		return errors.NewValidationError("cli retry interval must be positive").
			WithField("lock.cli_retry_interval").WithValue(cfg.Lock.CLIRetryInterval)
	}

	if cfg.Agent.Interval <= 0 {
		return errors.NewValidationError("agent interval must be positive").
			WithField("agent.interval").WithValue(cfg.Agent.Interval)
	}
	if cfg.Agent.Cycles < 0 {
		return errors.NewValidationError("agent cycles cannot be negative").
			WithField("agent.cycles").WithValue(cfg.Agent.Cycles)
	}
	if cfg.Agent.WorkMin < 0 || cfg.Agent.WorkMax < cfg.Agent.WorkMin {
		return errors.NewValidationError("work duration range is invalid").
			WithField("agent.work_max").WithValue(cfg.Agent.WorkMax)
	}
	if cfg.Agent.SuccessRate < 0 || cfg.Agent.SuccessRate > 1 {
		return errors.NewValidationError("success rate must be between 0 and 1").
			WithField("agent.success_rate").WithValue(cfg.Agent.SuccessRate)
	}

	if cfg.Logging.Level != "" {
		valid := false
		for _, lvl := range logging.ValidLevels() {
			if strings.EqualFold(cfg.Logging.Level, lvl) {
				valid = true
				break
			}
		}
		if !valid {
			return errors.NewValidationError("unknown log level").
				WithField("logging.level").WithValue(cfg.Logging.Level)
		}
	}

	return nil
}
