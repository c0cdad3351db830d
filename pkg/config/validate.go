package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate checks configuration consistency. It runs after defaults,
// so empty-where-defaulted fields are already filled.
func Validate(cfg *Config) error {
	if cfg.Rules.CacheTTL < 0 {
		return fmt.Errorf("rules.cache_ttl cannot be negative")
	}
	if cfg.Rules.WatchDebounce < 0 {
		return fmt.Errorf("rules.watch_debounce cannot be negative")
	}

	switch cfg.Agents.Gates.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("agents.gates.backend must be %q or %q, got %q",
			"memory", "sqlite", cfg.Agents.Gates.Backend)
	}
	if cfg.Agents.Gates.SweepSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Agents.Gates.SweepSchedule); err != nil {
			return fmt.Errorf("agents.gates.sweep_schedule %q is not a valid cron expression: %w",
				cfg.Agents.Gates.SweepSchedule, err)
		}
	}

	switch cfg.Decisions.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("decisions.backend must be %q or %q, got %q",
			"memory", "sqlite", cfg.Decisions.Backend)
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level %q is not one of debug, info, warn, error",
			cfg.Telemetry.Logging.Level)
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format %q is not one of json, text",
			cfg.Telemetry.Logging.Format)
	}
	return nil
}
