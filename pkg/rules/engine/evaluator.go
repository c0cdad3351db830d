package engine

import (
	"mizan-hq/mizan/pkg/rules/ast"
)

// Evaluate walks a condition tree against a profile.
//
// AND nodes short-circuit on the first false child and are vacuously true
// when empty; OR nodes short-circuit on the first true child and are false
// when empty. A nil tree always matches.
func Evaluate(cond *ast.Condition, profile Profile) bool {
	if cond == nil {
		return true
	}

	if cond.IsLeaf() {
		return MatchLeaf(cond, profile)
	}

	switch cond.Combinator {
	case ast.CombinatorAnd:
		for _, child := range cond.Children {
			if !Evaluate(child, profile) {
				return false
			}
		}
		return true

	case ast.CombinatorOr:
		for _, child := range cond.Children {
			if Evaluate(child, profile) {
				return true
			}
		}
		return false

	default:
		// Unreachable for parsed rulesets; fail closed regardless.
		return false
	}
}

// EvaluateRule reports whether the rule fires for the profile and, if so,
// returns its actions in declaration order.
func EvaluateRule(rule *ast.Rule, profile Profile) (bool, []*ast.Action) {
	if !Evaluate(rule.Condition, profile) {
		return false, nil
	}
	return true, rule.Actions
}
