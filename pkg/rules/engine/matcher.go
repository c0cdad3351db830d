package engine

import (
	"fmt"
	"strconv"
	"strings"

	"mizan-hq/mizan/pkg/rules/ast"
)

// MatchLeaf evaluates a single leaf condition against a profile.
//
// The contract fails closed: a missing profile field is false for every
// operator, and numeric operators return false when either side does not
// parse as a number. Unknown operators cannot reach evaluation (the parser
// rejects them at load time) but are treated as false here as well rather
// than panicking. String matching is case-sensitive; profiles wanting folded
// comparison must be normalized before derivation.
func MatchLeaf(cond *ast.Condition, profile Profile) bool {
	raw, ok := profile[cond.Field]
	if !ok || raw == nil {
		return false
	}

	switch cond.Operator {
	case ast.OperatorEquals:
		v, ok := scalarString(raw)
		return ok && v == cond.Value

	case ast.OperatorIn:
		want := splitSet(cond.Value)
		for _, have := range valueSet(raw) {
			if _, hit := want[have]; hit {
				return true
			}
		}
		return false

	case ast.OperatorContains:
		if v, ok := scalarString(raw); ok {
			return strings.Contains(v, cond.Value)
		}
		for _, have := range valueSet(raw) {
			if have == cond.Value {
				return true
			}
		}
		return false

	case ast.OperatorGte:
		have, want, ok := numericPair(raw, cond.Value)
		return ok && have >= want

	case ast.OperatorLt:
		have, want, ok := numericPair(raw, cond.Value)
		return ok && have < want

	default:
		return false
	}
}

// scalarString renders a scalar profile value as a string. Set-valued fields
// return false so set-aware operators can handle them.
func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		// JSON numbers decode as float64; render integers without the
		// trailing ".0" so equals("500") matches a profile value of 500.
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10), true
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case []string, []any:
		return "", false
	default:
		return fmt.Sprint(val), true
	}
}

// valueSet renders a profile value as a set of member strings. Scalars
// become single-element sets.
func valueSet(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		members := make([]string, 0, len(val))
		for _, m := range val {
			if s, ok := scalarString(m); ok {
				members = append(members, s)
			}
		}
		return members
	default:
		if s, ok := scalarString(v); ok {
			return []string{s}
		}
		return nil
	}
}

// splitSet parses a comma-separated rule value into a membership set.
// Members are trimmed of surrounding whitespace but not case-folded.
func splitSet(value string) map[string]struct{} {
	parts := strings.Split(value, ",")
	set := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			set[p] = struct{}{}
		}
	}
	return set
}

// numericPair parses both comparison sides as numbers.
func numericPair(raw any, ruleValue string) (have, want float64, ok bool) {
	have, ok = toNumber(raw)
	if !ok {
		return 0, 0, false
	}
	want, err := strconv.ParseFloat(strings.TrimSpace(ruleValue), 64)
	if err != nil {
		return 0, 0, false
	}
	return have, want, true
}

// toNumber converts a profile value to float64.
func toNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
