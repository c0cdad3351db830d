package ast

// RuleStatus marks whether a rule participates in derivation.
type RuleStatus string

const (
	RuleStatusActive   RuleStatus = "ACTIVE"
	RuleStatusInactive RuleStatus = "INACTIVE"
)

// Rule is a single derivation rule. Rules are immutable once loaded; a
// change produces a new ruleset version rather than mutating in place.
type Rule struct {
	// RuleCode uniquely identifies the rule within its ruleset.
	RuleCode string

	// Name is the human-readable rule name.
	Name string

	// Description explains what organization shape the rule targets.
	Description string

	// Priority orders evaluation; lower values evaluate first. Ties are
	// broken by ordinal (declaration order in the source document).
	Priority int

	// Ordinal is the rule's declaration index within the ruleset.
	Ordinal int

	Status RuleStatus

	// Condition is the root of the rule's condition tree. A nil condition
	// always matches.
	Condition *Condition

	// Actions are applied, in declaration order, when the condition holds.
	Actions []*Action
}

// IsActive reports whether the rule participates in derivation.
func (r *Rule) IsActive() bool {
	return r.Status == RuleStatusActive
}
