package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults,
// and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Boolean defaults are set before unmarshal so an absent key means
	// "default on" while an explicit false still wins.
	cfg := &Config{}
	cfg.Decisions.WALMode = DefaultDecisionWALMode
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies MIZAN_SECTION_FIELD environment variable overrides, which
// always take precedence over file values.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("MIZAN_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("MIZAN_RULES_PATH"); val != "" {
		cfg.Rules.Path = val
	}
	if val := os.Getenv("MIZAN_RULES_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rules.Watch = b
		}
	}
	if val := os.Getenv("MIZAN_RULES_CACHE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Rules.CacheTTL = d
		}
	}

	if val := os.Getenv("MIZAN_AGENTS_CATALOG_PATH"); val != "" {
		cfg.Agents.CatalogPath = val
	}
	if val := os.Getenv("MIZAN_AGENTS_SOD_RULES_PATH"); val != "" {
		cfg.Agents.SoDRulesPath = val
	}
	if val := os.Getenv("MIZAN_GATES_BACKEND"); val != "" {
		cfg.Agents.Gates.Backend = val
	}
	if val := os.Getenv("MIZAN_GATES_SQLITE_PATH"); val != "" {
		cfg.Agents.Gates.SQLitePath = val
	}
	if val := os.Getenv("MIZAN_GATES_SWEEP_SCHEDULE"); val != "" {
		cfg.Agents.Gates.SweepSchedule = val
	}

	if val := os.Getenv("MIZAN_WORKFLOWS_DEFINITIONS_PATH"); val != "" {
		cfg.Workflows.DefinitionsPath = val
	}

	if val := os.Getenv("MIZAN_DECISIONS_BACKEND"); val != "" {
		cfg.Decisions.Backend = val
	}
	if val := os.Getenv("MIZAN_DECISIONS_SQLITE_PATH"); val != "" {
		cfg.Decisions.SQLitePath = val
	}

	if val := os.Getenv("MIZAN_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("MIZAN_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("MIZAN_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}
