package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mizan-hq/mizan/pkg/config"
	"mizan-hq/mizan/pkg/decision/store"
	"mizan-hq/mizan/pkg/rules"
	"mizan-hq/mizan/pkg/rules/engine"
	"mizan-hq/mizan/pkg/rules/source"
	"mizan-hq/mizan/pkg/telemetry/logging"
)

var deriveFlags struct {
	tenant  string
	profile string
}

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Run a one-shot scope derivation",
	Long: `Load the configured rulesets, derive the scope for one tenant from a
profile file, and print the result as JSON. Nothing is persisted; the
audit record is part of the printed output.

Examples:
  mizan derive --tenant acme --profile profile.json`,
	RunE: deriveScope,
}

func init() {
	rootCmd.AddCommand(deriveCmd)

	deriveCmd.Flags().StringVarP(&deriveFlags.tenant, "tenant", "t", "", "tenant whose active ruleset to use")
	deriveCmd.Flags().StringVarP(&deriveFlags.profile, "profile", "p", "", "organization profile JSON file")
	_ = deriveCmd.MarkFlagRequired("tenant")
	_ = deriveCmd.MarkFlagRequired("profile")
}

func deriveScope(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}
	logCfg := cfg.Telemetry.Logging
	logCfg.Level = "error"
	logger, err := logging.New(logCfg, os.Stderr)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(deriveFlags.profile)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}
	var profile engine.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return fmt.Errorf("parse profile: %w", err)
	}

	ctx := context.Background()
	registry := rules.NewRegistry()
	manager, err := rules.NewManager(registry, store.NewMemoryStore(), rules.ManagerConfig{
		CacheTTL: cfg.Rules.CacheTTL,
	}, logger)
	if err != nil {
		return err
	}
	if err := manager.LoadFromSource(ctx, source.NewFileSource(cfg.Rules.Path, logger)); err != nil {
		return fmt.Errorf("load rulesets from %s: %w", cfg.Rules.Path, err)
	}

	result, err := manager.DeriveScope(ctx, deriveFlags.tenant, profile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"scope":  result.Scope,
		"record": result.Record,
	})
}
