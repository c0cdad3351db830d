package source

import (
	"context"

	"mizan-hq/mizan/pkg/rules/ast"
)

// Source provides ruleset documents to the registry.
type Source interface {
	// LoadRulesets loads and parses every ruleset the source knows of.
	// Malformed documents fail the whole load; partially-applied ruleset
	// activations are never observable.
	LoadRulesets(ctx context.Context) ([]*ast.Ruleset, error)
}

// MemorySource serves a fixed set of rulesets. Used by tests and by callers
// that assemble rulesets programmatically.
type MemorySource struct {
	rulesets []*ast.Ruleset
}

// NewMemorySource creates a source over the given rulesets.
func NewMemorySource(rulesets ...*ast.Ruleset) *MemorySource {
	return &MemorySource{rulesets: rulesets}
}

// LoadRulesets returns the configured rulesets.
func (s *MemorySource) LoadRulesets(ctx context.Context) ([]*ast.Ruleset, error) {
	out := make([]*ast.Ruleset, len(s.rulesets))
	copy(out, s.rulesets)
	return out, nil
}
