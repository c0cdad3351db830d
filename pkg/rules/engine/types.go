package engine

// Profile is a flat organization profile: field name to value. Values may be
// strings, numbers, booleans, or sets of strings ([]string / []any). The
// profile is treated as immutable for the duration of a derivation call.
type Profile map[string]any

// ScopedCode is one baseline, package, or template code in a derived scope,
// annotated with the rule that first contributed it.
type ScopedCode struct {
	// Code is the opaque catalog identifier. The engine never validates
	// codes against the live catalog; that reconciliation is the caller's.
	Code string `json:"code"`

	// Reason is the code of the rule that won the contribution. When
	// several rules apply the same code, the first one in priority order
	// keeps the provenance.
	Reason string `json:"reason"`
}

// ScopedTag is one tag annotation in a derived scope. Tag merging is
// last-write-wins in priority order: when two firing rules write the same
// key, the later write (higher priority number, or later declaration on a
// tie) keeps both the value and the provenance.
type ScopedTag struct {
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// DerivedScope is the output of running a ruleset over a profile: the
// deduplicated sets of applicable baselines, packages, and templates plus
// the merged tag annotations, each with rule provenance for audit.
type DerivedScope struct {
	// RulesetCode and RulesetVersion identify the ruleset that produced
	// the scope.
	RulesetCode    string `json:"rulesetCode"`
	RulesetVersion int    `json:"rulesetVersion"`

	Baselines []ScopedCode         `json:"baselines"`
	Packages  []ScopedCode         `json:"packages"`
	Templates []ScopedCode         `json:"templates"`
	Tags      map[string]ScopedTag `json:"tags"`

	// MatchedRules lists, in evaluation order, the codes of every rule
	// that fired.
	MatchedRules []string `json:"matchedRules"`

	// RulesEvaluated counts every active rule inspected; RulesMatched
	// counts the subset that fired.
	RulesEvaluated int `json:"rulesEvaluated"`
	RulesMatched   int `json:"rulesMatched"`
}

// HasBaseline reports whether the scope contains the given baseline code.
func (s *DerivedScope) HasBaseline(code string) bool {
	return hasCode(s.Baselines, code)
}

// HasPackage reports whether the scope contains the given package code.
func (s *DerivedScope) HasPackage(code string) bool {
	return hasCode(s.Packages, code)
}

// HasTemplate reports whether the scope contains the given template code.
func (s *DerivedScope) HasTemplate(code string) bool {
	return hasCode(s.Templates, code)
}

func hasCode(codes []ScopedCode, code string) bool {
	for _, c := range codes {
		if c.Code == code {
			return true
		}
	}
	return false
}
