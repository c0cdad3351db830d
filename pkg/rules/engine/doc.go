// Package engine evaluates derivation rulesets against organization
// profiles.
//
// Evaluation is pure: the matcher, evaluator, and deriver hold no mutable
// state and may run from any number of goroutines concurrently. All rules in
// a ruleset are always evaluated (no global short-circuit) so that tag
// actions from lower-priority rules still apply alongside higher-priority
// baselines; only condition trees short-circuit internally.
package engine
