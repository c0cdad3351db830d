package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Rules.CacheTTL != DefaultCacheTTL {
		t.Errorf("cache ttl = %s", cfg.Rules.CacheTTL)
	}
	if cfg.Agents.Gates.Backend != "memory" || cfg.Agents.Gates.SweepSchedule != DefaultSweepSchedule {
		t.Errorf("gates = %+v", cfg.Agents.Gates)
	}
	if cfg.Decisions.Backend != "sqlite" || !cfg.Decisions.WALMode {
		t.Errorf("decisions = %+v", cfg.Decisions)
	}
	if cfg.Telemetry.Logging.Level != "info" || cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Telemetry.Logging)
	}
	if !cfg.Telemetry.Metrics.Enabled || cfg.Telemetry.Metrics.Namespace != "mizan" {
		t.Errorf("metrics = %+v", cfg.Telemetry.Metrics)
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
server:
  listen_address: "0.0.0.0:9000"
rules:
  path: /etc/mizan/rulesets
  watch: true
  cache_ttl: 24h
agents:
  catalog_path: /etc/mizan/agents.yaml
  gates:
    backend: sqlite
    sweep_schedule: "*/1 * * * *"
decisions:
  wal_mode: false
telemetry:
  logging:
    level: debug
    format: text
  metrics:
    enabled: false
`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if !cfg.Rules.Watch || cfg.Rules.CacheTTL != 24*time.Hour {
		t.Errorf("rules = %+v", cfg.Rules)
	}
	if cfg.Agents.Gates.Backend != "sqlite" {
		t.Errorf("gate backend = %q", cfg.Agents.Gates.Backend)
	}

	// Explicit false survives the boolean defaults.
	if cfg.Decisions.WALMode {
		t.Error("wal_mode: false overridden by default")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("metrics.enabled: false overridden by default")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		reason string
	}{
		{"bad gate backend", "agents:\n  gates:\n    backend: postgres\n", "agents.gates.backend"},
		{"bad decision backend", "decisions:\n  backend: redis\n", "decisions.backend"},
		{"bad cron", "agents:\n  gates:\n    sweep_schedule: nonsense\n", "cron"},
		{"bad level", "telemetry:\n  logging:\n    level: loud\n", "telemetry.logging.level"},
		{"bad format", "telemetry:\n  logging:\n    format: xml\n", "telemetry.logging.format"},
		{"negative ttl", "rules:\n  cache_ttl: -1h\n", "cache_ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.yaml))
			if err == nil {
				t.Fatal("invalid configuration accepted")
			}
			if !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("error %q does not mention %q", err, tt.reason)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MIZAN_SERVER_LISTEN_ADDRESS", "0.0.0.0:7000")
	t.Setenv("MIZAN_RULES_WATCH", "true")
	t.Setenv("MIZAN_RULES_CACHE_TTL", "12h")
	t.Setenv("MIZAN_GATES_BACKEND", "sqlite")
	t.Setenv("MIZAN_LOG_LEVEL", "warn")
	t.Setenv("MIZAN_METRICS_ENABLED", "false")

	cfg, err := LoadConfigWithEnvOverrides(writeConfig(t, `
server:
  listen_address: "127.0.0.1:8340"
telemetry:
  logging:
    level: debug
`))
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:7000" {
		t.Errorf("env override lost: listen address = %q", cfg.Server.ListenAddress)
	}
	if !cfg.Rules.Watch || cfg.Rules.CacheTTL != 12*time.Hour {
		t.Errorf("rules = %+v", cfg.Rules)
	}
	if cfg.Agents.Gates.Backend != "sqlite" {
		t.Errorf("gate backend = %q", cfg.Agents.Gates.Backend)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("env LOG_LEVEL did not beat the file value: %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("MIZAN_METRICS_ENABLED=false ignored")
	}
}

func TestEnvOverrides_Validated(t *testing.T) {
	t.Setenv("MIZAN_GATES_BACKEND", "postgres")
	if _, err := LoadConfigWithEnvOverrides(writeConfig(t, "{}\n")); err == nil {
		t.Error("invalid env override accepted")
	}
}

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()
	if err := Validate(cfg); err != nil {
		t.Errorf("default configuration invalid: %v", err)
	}
}
