package engine

import (
	"log/slog"

	"mizan-hq/mizan/pkg/rules/ast"
)

// Deriver runs a ruleset over an organization profile and accumulates the
// derived scope. A Deriver is stateless apart from its logger and is safe
// for concurrent use.
type Deriver struct {
	logger *slog.Logger
}

// NewDeriver creates a scope deriver.
func NewDeriver(logger *slog.Logger) *Deriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deriver{logger: logger.With("component", "rules.deriver")}
}

// Derive evaluates every active rule in ascending priority order and merges
// the actions of firing rules into a DerivedScope.
//
// Merge policy: baseline/package/template codes are deduplicated by code
// with first-match-wins provenance; tag keys are last-write-wins, so a later
// firing rule overwrites both the value and the provenance of an earlier
// one. Both policies are deliberate, documented behavior relied on by the
// decision cache's determinism requirement: the same ruleset version and
// profile always produce a byte-for-byte identical scope.
func (d *Deriver) Derive(rs *ast.Ruleset, profile Profile) *DerivedScope {
	scope := &DerivedScope{
		RulesetCode:    rs.RulesetCode,
		RulesetVersion: rs.Version,
		Tags:           make(map[string]ScopedTag),
	}

	for _, rule := range rs.ActiveRules() {
		scope.RulesEvaluated++

		fired, actions := EvaluateRule(rule, profile)
		if !fired {
			continue
		}
		scope.RulesMatched++
		scope.MatchedRules = append(scope.MatchedRules, rule.RuleCode)

		for _, action := range actions {
			d.apply(scope, rule.RuleCode, action)
		}

		d.logger.Debug("rule fired",
			"ruleset", rs.RulesetCode,
			"ruleset_version", rs.Version,
			"rule", rule.RuleCode,
			"actions", len(actions),
		)
	}

	return scope
}

// apply merges a single action into the accumulator.
func (d *Deriver) apply(scope *DerivedScope, ruleCode string, action *ast.Action) {
	switch action.Type {
	case ast.ActionApplyBaseline:
		scope.Baselines = appendCode(scope.Baselines, action.Code, ruleCode)
	case ast.ActionApplyPackage:
		scope.Packages = appendCode(scope.Packages, action.Code, ruleCode)
	case ast.ActionApplyTemplate:
		scope.Templates = appendCode(scope.Templates, action.Code, ruleCode)
	case ast.ActionTag:
		scope.Tags[action.Key] = ScopedTag{Value: action.Value, Reason: ruleCode}
	}
}

// appendCode adds a code unless already present; the first contributor keeps
// the provenance and the ordering slot.
func appendCode(codes []ScopedCode, code, ruleCode string) []ScopedCode {
	for _, c := range codes {
		if c.Code == code {
			return codes
		}
	}
	return append(codes, ScopedCode{Code: code, Reason: ruleCode})
}
