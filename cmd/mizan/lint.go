package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mizan-hq/mizan/pkg/rules/ast"
	"mizan-hq/mizan/pkg/rules/source"
)

var lintFlags struct {
	file   string
	dir    string
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate ruleset documents",
	Long: `Validate ruleset documents for structural and semantic errors.

The lint command parses ruleset files and rejects anything that would
fail activation:
  - JSON Schema validation (JSON documents)
  - Unknown operators and combinators
  - Malformed actions (missing codes or tag keys)
  - Empty rulesets and duplicate rule codes

Examples:
  # Lint a single file
  mizan lint --file rulesets/saudi-baseline.json

  # Lint a directory
  mizan lint --dir rulesets/

  # JSON output for CI/CD
  mizan lint --dir rulesets/ --format json`,
	RunE: lintRulesets,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "ruleset file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of ruleset files")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

type lintResult struct {
	File  string `json:"file"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func lintRulesets(cmd *cobra.Command, args []string) error {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return fmt.Errorf("either --file or --dir must be specified")
	}

	var files []string
	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}
	if lintFlags.dir != "" {
		for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(lintFlags.dir, pattern))
			if err != nil {
				return fmt.Errorf("failed to list ruleset files: %w", err)
			}
			files = append(files, matches...)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no ruleset files found")
	}

	var results []lintResult
	failures := 0
	for _, file := range files {
		res := lintResult{File: file, Valid: true}
		if err := lintOne(file); err != nil {
			res.Valid = false
			res.Error = err.Error()
			failures++
		}
		results = append(results, res)
	}

	if lintFlags.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if res.Valid {
				fmt.Printf("✓ %s\n", res.File)
			} else {
				fmt.Printf("✗ %s\n  %s\n", res.File, res.Error)
			}
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d files failed validation", failures, len(results))
	}
	return nil
}

func lintOne(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := source.ValidateDocument(data); err != nil {
			return err
		}
		_, err = ast.Parse(data)
		return err
	case ".yaml", ".yml":
		_, err = ast.ParseYAML(data)
		return err
	default:
		return fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}
