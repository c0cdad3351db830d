package ast

import (
	"errors"
	"fmt"
)

// ErrEmptyRuleset indicates a ruleset document with no rules.
var ErrEmptyRuleset = errors.New("ruleset contains no rules")

// MalformedConditionError indicates an unknown operator or combinator, or a
// structurally invalid condition node, detected while loading a ruleset.
// Evaluation never sees these: a ruleset that fails to parse never activates.
type MalformedConditionError struct {
	RuleCode string
	Reason   string
}

// Error returns the error message.
func (e *MalformedConditionError) Error() string {
	return fmt.Sprintf("rule %s: malformed condition: %s", e.RuleCode, e.Reason)
}

// MalformedActionError indicates an unknown action type or an action missing
// its required payload.
type MalformedActionError struct {
	RuleCode string
	Reason   string
}

// Error returns the error message.
func (e *MalformedActionError) Error() string {
	return fmt.Sprintf("rule %s: malformed action: %s", e.RuleCode, e.Reason)
}

// RulesetValidationError aggregates every problem found in a document so an
// administrator can fix them in one pass.
type RulesetValidationError struct {
	RulesetCode string
	Errors      []string
}

// Error returns the error message.
func (e *RulesetValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("ruleset %s: validation error: %s", e.RulesetCode, e.Errors[0])
	}
	return fmt.Sprintf("ruleset %s: %d validation errors: %v", e.RulesetCode, len(e.Errors), e.Errors)
}
