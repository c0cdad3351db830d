// Package sod implements the segregation-of-duties conflict matrix for
// agent actions.
//
// A SoD rule declares two actions mutually exclusive for given agent types
// on the same business object. The matrix is advisory/blocking business
// policy, not a security boundary: Block conflicts reject the action, Warn
// conflicts let it proceed but flag it for audit. Symmetry is never
// inferred; forbidding the reverse ordering takes a second rule.
package sod

import (
	"context"
	"strings"
	"time"
)

// Enforcement is what happens when a conflict is detected.
type Enforcement string

const (
	// EnforcementBlock rejects the conflicting action.
	EnforcementBlock Enforcement = "Block"

	// EnforcementWarn lets the action proceed but records a violation.
	EnforcementWarn Enforcement = "Warn"
)

// Rule declares that an actor performing Action1 must not also perform
// Action2 on the same object. Empty agent-type lists match any type.
type Rule struct {
	RuleCode    string `yaml:"ruleCode"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Action1           string   `yaml:"action1"`
	Action1AgentTypes []string `yaml:"action1AgentTypes"`
	Action2           string   `yaml:"action2"`
	Action2AgentTypes []string `yaml:"action2AgentTypes"`

	Enforcement Enforcement `yaml:"enforcement"`
	Active      bool        `yaml:"active"`
}

// matchesType reports whether agentType is in types; an empty list matches
// every type.
func matchesType(types []string, agentType string) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if strings.TrimSpace(t) == agentType {
			return true
		}
	}
	return false
}

// PerformedAction is one entry in the action log: who did what to which
// business object.
type PerformedAction struct {
	AgentCode string
	AgentType string
	Action    string
	ObjectID  string
	At        time.Time
}

// ActionLog supplies previously authorized/performed actions scoped to a
// business object. The engine records governor-approved actions here;
// callers may also feed externally performed actions in.
type ActionLog interface {
	// Performed returns every logged action for the object.
	Performed(ctx context.Context, objectID string) ([]PerformedAction, error)

	// Record appends one performed action.
	Record(ctx context.Context, action PerformedAction) error
}

// Conflict describes a detected SoD violation.
type Conflict struct {
	// RuleCode names the violated rule.
	RuleCode string

	Enforcement Enforcement

	// Prior is the earlier action that conflicts with the proposal.
	Prior PerformedAction

	// ProposedAction is the action that triggered the conflict.
	ProposedAction string

	// ObjectID is the business object both actions touch.
	ObjectID string

	DetectedAt time.Time
}

// Blocking reports whether the conflict must reject the action.
func (c *Conflict) Blocking() bool {
	return c.Enforcement == EnforcementBlock
}
