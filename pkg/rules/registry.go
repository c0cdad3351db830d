// Package rules manages versioned rulesets and exposes cached scope
// derivation over the active version.
package rules

import (
	"fmt"
	"sync"
	"time"

	"mizan-hq/mizan/pkg/rules/ast"
)

// Registry holds the active ruleset per tenant scope. Activation swaps the
// whole ruleset atomically; evaluation in flight keeps the version it
// started with.
type Registry struct {
	mu     sync.RWMutex
	active map[string]*ast.Ruleset
}

// NewRegistry creates an empty ruleset registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]*ast.Ruleset)}
}

// Activate makes the given ruleset the active version for its tenant scope,
// replacing any prior version. Activating an older version of the same
// ruleset code is rejected; republishing the same version is allowed so that
// a corrected document with a bumped version is the normal fix path. A
// ruleset with a different code replaces the active one at any version, so a
// tenant can migrate to a new ruleset family starting at version 1.
func (r *Registry) Activate(rs *ast.Ruleset) error {
	if len(rs.Rules) == 0 {
		return &ActivationError{RulesetCode: rs.RulesetCode, Version: rs.Version, Cause: ast.ErrEmptyRuleset}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.active[rs.Tenant]; ok && current.RulesetCode == rs.RulesetCode && current.Version > rs.Version {
		return &ActivationError{
			RulesetCode: rs.RulesetCode,
			Version:     rs.Version,
			Cause:       fmt.Errorf("version %d is older than active version %d", rs.Version, current.Version),
		}
	}

	activated := *rs
	activated.Status = ast.RulesetStatusActive
	if activated.ActivatedAt.IsZero() {
		activated.ActivatedAt = time.Now().UTC()
	}
	r.active[rs.Tenant] = &activated
	return nil
}

// Active returns the active ruleset for the tenant scope, or
// ErrRulesetNotActive.
func (r *Registry) Active(tenant string) (*ast.Ruleset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, ok := r.active[tenant]
	if !ok {
		return nil, fmt.Errorf("tenant %q: %w", tenant, ErrRulesetNotActive)
	}
	return rs, nil
}

// Tenants returns every tenant scope with an active ruleset.
func (r *Registry) Tenants() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tenants := make([]string, 0, len(r.active))
	for t := range r.active {
		tenants = append(tenants, t)
	}
	return tenants
}
