package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mizan",
	Short: "Mizan - policy derivation and agent governance engine",
	Long: `Mizan is a rule-evaluation engine for GRC platforms.

It provides:
  - Scope derivation: mapping organization profiles to applicable
    compliance baselines, packages, and templates via versioned rulesets
  - Agent action governance: allow-lists, approval gates, and
    confidence thresholds for autonomous agents
  - Separation-of-duties conflict detection with Block/Warn enforcement
  - SLA-driven approval gate escalation and auto-rejection
  - Linear workflow instance advancement with per-step deadlines`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
