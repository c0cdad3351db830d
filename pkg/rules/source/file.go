package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mizan-hq/mizan/pkg/rules/ast"
)

// FileSource loads ruleset documents from disk. The path may be a single
// file or a directory; directories are walked for .json, .yaml, and .yml
// files. JSON documents are schema-validated before parsing.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a file-based ruleset source.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:   path,
		logger: logger.With("component", "rules.source"),
	}
}

// LoadRulesets loads every ruleset document under the configured path.
// Unlike lenient policy loaders, a single malformed document fails the whole
// load: an administrator publishing a broken ruleset must find out at load
// time, not when derivation silently skips it.
func (s *FileSource) LoadRulesets(ctx context.Context) ([]*ast.Ruleset, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("stat ruleset path %q: %w", s.path, err)
	}

	var paths []string
	if info.IsDir() {
		err := filepath.Walk(s.path, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".json", ".yaml", ".yml":
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk ruleset directory %q: %w", s.path, err)
		}
	} else {
		paths = []string{s.path}
	}

	rulesets := make([]*ast.Ruleset, 0, len(paths))
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rs, err := s.loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load ruleset %q: %w", path, err)
		}
		rulesets = append(rulesets, rs)
	}

	s.logger.Info("loaded rulesets",
		"path", s.path,
		"ruleset_count", len(rulesets),
	)
	return rulesets, nil
}

// loadFile parses one ruleset document.
func (s *FileSource) loadFile(path string) (*ast.Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ast.ParseYAML(data)
	default:
		if err := ValidateDocument(data); err != nil {
			return nil, err
		}
		return ast.Parse(data)
	}
}
