package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mizan-hq/mizan/pkg/config"
	"mizan-hq/mizan/pkg/decision"
	"mizan-hq/mizan/pkg/decision/store"
)

var decisionsFlags struct {
	tenant     string
	policyType string
	since      string
	limit      int
	format     string
}

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Query the policy decision audit trail",
	Long: `Query policy decision records from the configured decision store.

Examples:
  # Last 20 decisions for a tenant
  mizan decisions --tenant acme --limit 20

  # Agent action decisions since a point in time
  mizan decisions --type AgentAction --since 2026-08-01T00:00:00Z

  # JSON output
  mizan decisions --tenant acme --format json`,
	RunE: queryDecisions,
}

func init() {
	rootCmd.AddCommand(decisionsCmd)

	decisionsCmd.Flags().StringVarP(&decisionsFlags.tenant, "tenant", "t", "", "filter by tenant")
	decisionsCmd.Flags().StringVar(&decisionsFlags.policyType, "type", "", "filter by policy type (ScopeDerivation, AgentAction)")
	decisionsCmd.Flags().StringVar(&decisionsFlags.since, "since", "", "only decisions evaluated at or after this RFC 3339 time")
	decisionsCmd.Flags().IntVarP(&decisionsFlags.limit, "limit", "n", 50, "maximum records to return")
	decisionsCmd.Flags().StringVar(&decisionsFlags.format, "format", "table", "output format: table, json")
}

func queryDecisions(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Decisions.Backend != "sqlite" {
		return fmt.Errorf("decisions query requires the sqlite backend, configured backend is %q", cfg.Decisions.Backend)
	}

	st, err := store.NewSQLiteStore(&store.SQLiteConfig{
		Path:        cfg.Decisions.SQLitePath,
		BusyTimeout: cfg.Decisions.BusyTimeout,
		WALMode:     cfg.Decisions.WALMode,
	})
	if err != nil {
		return fmt.Errorf("open decision store: %w", err)
	}
	defer st.Close()

	filter := store.Filter{
		Tenant:     decisionsFlags.tenant,
		PolicyType: decision.PolicyType(decisionsFlags.policyType),
		Limit:      decisionsFlags.limit,
	}
	if decisionsFlags.since != "" {
		t, perr := time.Parse(time.RFC3339, decisionsFlags.since)
		if perr != nil {
			return fmt.Errorf("invalid --since value: %w", perr)
		}
		filter.Since = t
	}

	records, err := st.Query(context.Background(), filter)
	if err != nil {
		return err
	}

	if decisionsFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EVALUATED\tTENANT\tTYPE\tDECISION\tCONFIDENCE\tCACHED\tREASON")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%t\t%s\n",
			rec.EvaluatedAt.Format(time.RFC3339),
			rec.Tenant,
			rec.PolicyType,
			rec.Decision,
			rec.ConfidenceScore,
			rec.IsCached,
			rec.Reason,
		)
	}
	return w.Flush()
}
