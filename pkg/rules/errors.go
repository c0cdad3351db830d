package rules

import (
	"errors"
	"fmt"
)

// ErrRulesetNotActive indicates no active ruleset exists for the requested
// tenant scope, so derivation cannot run.
var ErrRulesetNotActive = errors.New("no active ruleset for tenant scope")

// ActivationError indicates a ruleset could not be activated.
type ActivationError struct {
	RulesetCode string
	Version     int
	Cause       error
}

// Error returns the error message.
func (e *ActivationError) Error() string {
	return fmt.Sprintf("activate ruleset %s v%d: %v", e.RulesetCode, e.Version, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ActivationError) Unwrap() error {
	return e.Cause
}
