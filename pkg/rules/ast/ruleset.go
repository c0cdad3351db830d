package ast

import (
	"sort"
	"time"
)

// RulesetStatus tracks a ruleset version through its lifecycle.
type RulesetStatus string

const (
	RulesetStatusDraft   RulesetStatus = "Draft"
	RulesetStatusActive  RulesetStatus = "Active"
	RulesetStatusRetired RulesetStatus = "Retired"
)

// Ruleset is a versioned, atomically-activated collection of rules. At most
// one version may be Active at a time per tenant scope.
type Ruleset struct {
	// RulesetCode identifies the ruleset family (e.g. "KSA_GRC_COMPREHENSIVE").
	RulesetCode string

	// Name is the human-readable ruleset name.
	Name string

	// Version increments with every published change.
	Version int

	// Tenant is the opaque tenant scope the ruleset applies to. Empty
	// means the platform-wide default scope.
	Tenant string

	Status RulesetStatus

	// ActivatedAt records when this version became Active.
	ActivatedAt time.Time

	// ChangeNotes describes what changed in this version.
	ChangeNotes string

	Rules []*Rule
}

// IsActive reports whether this version is the live one.
func (rs *Ruleset) IsActive() bool {
	return rs.Status == RulesetStatusActive
}

// ActiveRules returns the ACTIVE rules sorted by ascending priority, ties
// broken by declaration order. The returned slice is freshly allocated; the
// ruleset itself is never reordered.
func (rs *Ruleset) ActiveRules() []*Rule {
	active := make([]*Rule, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		if r.IsActive() {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Priority != active[j].Priority {
			return active[i].Priority < active[j].Priority
		}
		return active[i].Ordinal < active[j].Ordinal
	})
	return active
}

// RuleByCode returns the rule with the given code, or nil.
func (rs *Ruleset) RuleByCode(code string) *Rule {
	for _, r := range rs.Rules {
		if r.RuleCode == code {
			return r
		}
	}
	return nil
}
