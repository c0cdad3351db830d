package config

import "time"

// Default values for configuration fields.
const (
	DefaultListenAddress   = "127.0.0.1:8340"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultRulesPath     = "./rulesets"
	DefaultWatchDebounce = 500 * time.Millisecond
	DefaultCacheTTL      = 168 * time.Hour

	DefaultAgentCatalogPath = "./agents.yaml"

	DefaultGateBackend   = "memory"
	DefaultGateSQLite    = "data/gates.db"
	DefaultSweepSchedule = "*/5 * * * *"

	DefaultDecisionBackend     = "sqlite"
	DefaultDecisionSQLite      = "data/decisions.db"
	DefaultDecisionBusyTimeout = 5 * time.Second
	DefaultDecisionWALMode     = true

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "mizan"
	DefaultMetricsSubsystem = "engine"
)

// ApplyDefaults fills zero-valued fields with defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Rules.Path == "" {
		cfg.Rules.Path = DefaultRulesPath
	}
	if cfg.Rules.WatchDebounce == 0 {
		cfg.Rules.WatchDebounce = DefaultWatchDebounce
	}
	if cfg.Rules.CacheTTL == 0 {
		cfg.Rules.CacheTTL = DefaultCacheTTL
	}

	if cfg.Agents.CatalogPath == "" {
		cfg.Agents.CatalogPath = DefaultAgentCatalogPath
	}
	if cfg.Agents.Gates.Backend == "" {
		cfg.Agents.Gates.Backend = DefaultGateBackend
	}
	if cfg.Agents.Gates.SQLitePath == "" {
		cfg.Agents.Gates.SQLitePath = DefaultGateSQLite
	}
	if cfg.Agents.Gates.SweepSchedule == "" {
		cfg.Agents.Gates.SweepSchedule = DefaultSweepSchedule
	}

	if cfg.Decisions.Backend == "" {
		cfg.Decisions.Backend = DefaultDecisionBackend
	}
	if cfg.Decisions.SQLitePath == "" {
		cfg.Decisions.SQLitePath = DefaultDecisionSQLite
	}
	if cfg.Decisions.BusyTimeout == 0 {
		cfg.Decisions.BusyTimeout = DefaultDecisionBusyTimeout
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
}

// NewDefault returns a configuration with every default applied.
func NewDefault() *Config {
	cfg := &Config{}
	cfg.Decisions.WALMode = DefaultDecisionWALMode
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}
