package config

import "time"

// Config is the root engine configuration.
type Config struct {
	// Server configures the engine's HTTP API.
	Server ServerConfig `yaml:"server"`

	// Rules configures ruleset loading and scope derivation.
	Rules RulesConfig `yaml:"rules"`

	// Agents configures the agent catalog and action governance.
	Agents AgentsConfig `yaml:"agents"`

	// Workflows configures workflow definitions.
	Workflows WorkflowsConfig `yaml:"workflows"`

	// Decisions configures the policy decision audit store.
	Decisions DecisionsConfig `yaml:"decisions"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the host:port the API listens on.
	// Default: "127.0.0.1:8340"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout bounds reading the full request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing the full response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout bounds keep-alive idle connections.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RulesConfig configures ruleset sources and the decision cache.
type RulesConfig struct {
	// Path is the directory holding ruleset documents (.json, .yaml).
	Path string `yaml:"path"`

	// Watch reloads rulesets when files under Path change.
	Watch bool `yaml:"watch"`

	// WatchDebounce coalesces rapid file events into one reload.
	// Default: 500ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// CacheTTL is the derived-scope cache expiry.
	// Default: 168h (7 days)
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// AgentsConfig configures agent governance.
type AgentsConfig struct {
	// CatalogPath is the YAML file holding agent definitions.
	CatalogPath string `yaml:"catalog_path"`

	// SoDRulesPath is the YAML file holding separation-of-duties rules.
	// Empty disables SoD checking.
	SoDRulesPath string `yaml:"sod_rules_path"`

	// Gates configures approval gate storage and sweeping.
	Gates GatesConfig `yaml:"gates"`
}

// GatesConfig configures the approval gate store and SLA sweep.
type GatesConfig struct {
	// Backend selects gate storage.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the gate database file (sqlite backend).
	// Default: "data/gates.db"
	SQLitePath string `yaml:"sqlite_path"`

	// SweepSchedule is the cron expression for the SLA sweep.
	// Default: "*/5 * * * *" (every 5 minutes). Empty disables the sweep.
	SweepSchedule string `yaml:"sweep_schedule"`
}

// WorkflowsConfig configures workflow definitions.
type WorkflowsConfig struct {
	// DefinitionsPath is the YAML file holding workflow step lists.
	// Empty disables the workflow runner.
	DefinitionsPath string `yaml:"definitions_path"`
}

// DecisionsConfig configures the decision audit store.
type DecisionsConfig struct {
	// Backend selects decision storage.
	// Options: "memory", "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the decision database file (sqlite backend).
	// Default: "data/decisions.db"
	SQLitePath string `yaml:"sqlite_path"`

	// BusyTimeout is how long SQLite waits for locks.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// WALMode enables the write-ahead log.
	// Default: true
	WALMode bool `yaml:"wal_mode"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active and the
	// Prometheus endpoint is mounted on the API server.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace and Subsystem prefix every metric name.
	// Defaults: "mizan", "engine"
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}
