package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mizan-hq/mizan/pkg/agent"
	"mizan-hq/mizan/pkg/agent/directory"
	"mizan-hq/mizan/pkg/agent/gate"
	"mizan-hq/mizan/pkg/agent/governor"
	"mizan-hq/mizan/pkg/agent/sod"
	"mizan-hq/mizan/pkg/config"
	"mizan-hq/mizan/pkg/decision/store"
	"mizan-hq/mizan/pkg/rules"
	"mizan-hq/mizan/pkg/rules/source"
	"mizan-hq/mizan/pkg/server"
	"mizan-hq/mizan/pkg/telemetry/logging"
	"mizan-hq/mizan/pkg/telemetry/metrics"
	"mizan-hq/mizan/pkg/workflow"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Mizan engine",
	Long: `Start the Mizan engine with the specified configuration.

The engine loads rulesets and the agent catalog, starts the approval
gate SLA sweeper, and (optionally) watches the ruleset directory for
changes and serves Prometheus metrics.

Examples:
  # Start with default config
  mizan run

  # Start with custom config
  mizan run --config /etc/mizan/config.yaml

  # Validate config without starting
  mizan run --dry-run`,
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the engine")
}

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return err
	}

	if runFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	// Decision audit store
	var decisions store.Store
	switch cfg.Decisions.Backend {
	case "sqlite":
		decisions, err = store.NewSQLiteStore(&store.SQLiteConfig{
			Path:        cfg.Decisions.SQLitePath,
			BusyTimeout: cfg.Decisions.BusyTimeout,
			WALMode:     cfg.Decisions.WALMode,
		})
		if err != nil {
			return fmt.Errorf("open decision store: %w", err)
		}
	default:
		decisions = store.NewMemoryStore()
	}
	defer decisions.Close()

	// Rulesets
	registry := rules.NewRegistry()
	manager, err := rules.NewManager(registry, decisions, rules.ManagerConfig{
		CacheTTL:     cfg.Rules.CacheTTL,
		CacheMetrics: collector.Cache(),
		Metrics:      collector,
	}, logger)
	if err != nil {
		return err
	}

	src := source.NewFileSource(cfg.Rules.Path, logger)
	if err := manager.LoadFromSource(ctx, src); err != nil {
		return fmt.Errorf("load rulesets from %s: %w", cfg.Rules.Path, err)
	}
	logger.Info("rulesets loaded", "path", cfg.Rules.Path, "tenants", registry.Tenants())

	if cfg.Rules.Watch {
		watcher, werr := source.NewWatcher(cfg.Rules.Path, cfg.Rules.WatchDebounce, logger)
		if werr != nil {
			return fmt.Errorf("watch rulesets: %w", werr)
		}
		go func() {
			if werr := watcher.Watch(ctx, func() error {
				return manager.LoadFromSource(ctx, src)
			}); werr != nil && !errors.Is(werr, context.Canceled) {
				logger.Error("ruleset watcher stopped", "error", werr)
			}
		}()
		defer watcher.Stop()
	}

	// Agent governance
	catalog, err := agent.LoadCatalog(cfg.Agents.CatalogPath)
	if err != nil {
		return fmt.Errorf("load agent catalog: %w", err)
	}
	logger.Info("agent catalog loaded", "agents", catalog.Codes())

	dir, err := directory.NewFromCatalog(catalog, logger)
	if err != nil {
		return fmt.Errorf("build role directory: %w", err)
	}

	actionLog := sod.NewMemoryLog()
	var matrix *sod.Matrix
	if cfg.Agents.SoDRulesPath != "" {
		sodRules, serr := sod.LoadRules(cfg.Agents.SoDRulesPath)
		if serr != nil {
			return fmt.Errorf("load sod rules: %w", serr)
		}
		matrix, serr = sod.NewMatrix(sodRules, actionLog, logger)
		if serr != nil {
			return fmt.Errorf("build sod matrix: %w", serr)
		}
		logger.Info("sod matrix loaded", "rule_count", len(sodRules))
	}

	var gateStore gate.Store
	switch cfg.Agents.Gates.Backend {
	case "sqlite":
		gateStore, err = gate.NewSQLiteStore(gate.SQLiteStoreConfig{Path: cfg.Agents.Gates.SQLitePath})
		if err != nil {
			return fmt.Errorf("open gate store: %w", err)
		}
	default:
		gateStore = gate.NewMemoryStore()
	}
	defer gateStore.Close()

	gates := gate.NewService(gateStore, dir, logger, collector)

	sweeper := gate.NewSweeper(gates, cfg.Agents.Gates.SweepSchedule, logger)
	if err := sweeper.Start(ctx); err != nil {
		return err
	}
	defer sweeper.Stop()

	gov, err := governor.New(governor.Config{
		Catalog:   catalog,
		Matrix:    matrix,
		Gates:     gates,
		ActionLog: actionLog,
		Store:     decisions,
		Metrics:   collector,
	}, logger)
	if err != nil {
		return err
	}

	// Workflows
	var runner *workflow.Runner
	if cfg.Workflows.DefinitionsPath != "" {
		defs, werr := workflow.LoadDefinitions(cfg.Workflows.DefinitionsPath)
		if werr != nil {
			return fmt.Errorf("load workflow definitions: %w", werr)
		}
		runner, werr = workflow.NewRunner(defs, logger)
		if werr != nil {
			return fmt.Errorf("build workflow runner: %w", werr)
		}
		logger.Info("workflow definitions loaded", "types", runner.Types())
	}

	var metricsHandler http.Handler
	if cfg.Telemetry.Metrics.Enabled {
		metricsHandler = collector.Handler()
	}

	srv, err := server.NewServer(&cfg.Server, server.Components{
		Rules:     manager,
		Governor:  gov,
		Gates:     gates,
		Workflows: runner,
		Decisions: decisions,
		Metrics:   metricsHandler,
	}, logger)
	if err != nil {
		return err
	}

	logger.Info("mizan engine started", "version", Version)
	return srv.Start(ctx)
}
