package ast

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// rulesetDoc is the wire shape of a ruleset document.
type rulesetDoc struct {
	RulesetCode string    `json:"rulesetCode" yaml:"rulesetCode"`
	Name        string    `json:"name" yaml:"name"`
	Version     int       `json:"version" yaml:"version"`
	Tenant      string    `json:"tenant" yaml:"tenant"`
	Status      string    `json:"status" yaml:"status"`
	ChangeNotes string    `json:"changeNotes" yaml:"changeNotes"`
	Rules       []ruleDoc `json:"rules" yaml:"rules"`
}

type ruleDoc struct {
	RuleCode    string           `json:"ruleCode" yaml:"ruleCode"`
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description" yaml:"description"`
	Priority    int              `json:"priority" yaml:"priority"`
	Status      string           `json:"status" yaml:"status"`
	Condition   *conditionDoc    `json:"condition" yaml:"condition"`
	Actions     []map[string]any `json:"actions" yaml:"actions"`
}

// conditionDoc carries both the leaf and composite fields; Parse decides
// which form a node takes and rejects ambiguous ones.
type conditionDoc struct {
	Combinator string          `json:"combinator" yaml:"combinator"`
	Conditions []*conditionDoc `json:"conditions" yaml:"conditions"`
	Field      string          `json:"field" yaml:"field"`
	Operator   string          `json:"operator" yaml:"operator"`
	Value      string          `json:"value" yaml:"value"`
}

// Parse decodes and validates a JSON ruleset document. All structural
// problems (unknown operators, combinators, action types, duplicate rule
// codes) are reported here, at load time, so evaluation deals only with
// well-formed trees.
func Parse(data []byte) (*Ruleset, error) {
	var doc rulesetDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode ruleset document: %w", err)
	}
	return fromDoc(&doc)
}

// ParseYAML decodes and validates a YAML ruleset document. Validation is
// identical to Parse.
func ParseYAML(data []byte) (*Ruleset, error) {
	var doc rulesetDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode ruleset document: %w", err)
	}
	return fromDoc(&doc)
}

// fromDoc converts the decoded document into the typed AST.
func fromDoc(doc *rulesetDoc) (*Ruleset, error) {
	var problems []string

	if doc.RulesetCode == "" {
		problems = append(problems, "rulesetCode is required")
	}
	if doc.Version < 1 {
		problems = append(problems, fmt.Sprintf("version must be >= 1, got %d", doc.Version))
	}
	if len(doc.Rules) == 0 {
		problems = append(problems, ErrEmptyRuleset.Error())
	}

	status := RulesetStatus(doc.Status)
	if status == "" {
		status = RulesetStatusDraft
	}
	switch status {
	case RulesetStatusDraft, RulesetStatusActive, RulesetStatusRetired:
	default:
		problems = append(problems, fmt.Sprintf("unknown ruleset status %q", doc.Status))
	}

	rs := &Ruleset{
		RulesetCode: doc.RulesetCode,
		Name:        doc.Name,
		Version:     doc.Version,
		Tenant:      doc.Tenant,
		Status:      status,
		ChangeNotes: doc.ChangeNotes,
	}
	if status == RulesetStatusActive {
		rs.ActivatedAt = time.Now().UTC()
	}

	seen := make(map[string]bool, len(doc.Rules))
	for i, rd := range doc.Rules {
		rule, errs := parseRule(&rd, i)
		if rd.RuleCode != "" {
			if seen[rd.RuleCode] {
				problems = append(problems, fmt.Sprintf("duplicate rule code %q", rd.RuleCode))
			}
			seen[rd.RuleCode] = true
		}
		problems = append(problems, errs...)
		if rule != nil {
			rs.Rules = append(rs.Rules, rule)
		}
	}

	if len(problems) > 0 {
		return nil, &RulesetValidationError{RulesetCode: doc.RulesetCode, Errors: problems}
	}
	return rs, nil
}

// parseRule converts one rule document node, returning every problem found.
func parseRule(rd *ruleDoc, ordinal int) (*Rule, []string) {
	var problems []string

	code := rd.RuleCode
	if code == "" {
		code = fmt.Sprintf("rule[%d]", ordinal)
		problems = append(problems, fmt.Sprintf("%s: ruleCode is required", code))
	}

	status := RuleStatus(strings.ToUpper(rd.Status))
	if status == "" {
		status = RuleStatusActive
	}
	if status != RuleStatusActive && status != RuleStatusInactive {
		problems = append(problems, fmt.Sprintf("%s: unknown rule status %q", code, rd.Status))
	}

	cond, err := parseCondition(rd.Condition, code)
	if err != nil {
		problems = append(problems, err.Error())
	}

	if len(rd.Actions) == 0 {
		problems = append(problems, fmt.Sprintf("%s: rule has no actions", code))
	}
	actions := make([]*Action, 0, len(rd.Actions))
	for _, ad := range rd.Actions {
		action, err := parseAction(ad, code)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		actions = append(actions, action)
	}

	rule := &Rule{
		RuleCode:    rd.RuleCode,
		Name:        rd.Name,
		Description: rd.Description,
		Priority:    rd.Priority,
		Ordinal:     ordinal,
		Status:      status,
		Condition:   cond,
		Actions:     actions,
	}
	return rule, problems
}

// parseCondition converts a condition document node recursively. A nil node
// is permitted and means "always matches".
func parseCondition(cd *conditionDoc, ruleCode string) (*Condition, error) {
	if cd == nil {
		return nil, nil
	}

	composite := cd.Combinator != "" || len(cd.Conditions) > 0
	leaf := cd.Field != "" || cd.Operator != "" || cd.Value != ""

	switch {
	case composite && leaf:
		return nil, &MalformedConditionError{
			RuleCode: ruleCode,
			Reason:   "node mixes combinator and leaf fields",
		}

	case composite:
		comb := Combinator(strings.ToLower(cd.Combinator))
		if !validCombinator(comb) {
			return nil, &MalformedConditionError{
				RuleCode: ruleCode,
				Reason:   fmt.Sprintf("unknown combinator %q", cd.Combinator),
			}
		}
		node := &Condition{Combinator: comb}
		for _, child := range cd.Conditions {
			c, err := parseCondition(child, ruleCode)
			if err != nil {
				return nil, err
			}
			if c == nil {
				return nil, &MalformedConditionError{RuleCode: ruleCode, Reason: "null child condition"}
			}
			node.Children = append(node.Children, c)
		}
		return node, nil

	case leaf:
		op := Operator(strings.ToLower(cd.Operator))
		if !validOperator(op) {
			return nil, &MalformedConditionError{
				RuleCode: ruleCode,
				Reason:   fmt.Sprintf("unknown operator %q", cd.Operator),
			}
		}
		if cd.Field == "" {
			return nil, &MalformedConditionError{RuleCode: ruleCode, Reason: "leaf condition missing field"}
		}
		return &Condition{Field: cd.Field, Operator: op, Value: cd.Value}, nil

	default:
		return nil, &MalformedConditionError{RuleCode: ruleCode, Reason: "empty condition node"}
	}
}

// parseAction converts a single action document entry.
func parseAction(ad map[string]any, ruleCode string) (*Action, error) {
	rawType, _ := ad["type"].(string)
	t := ActionType(strings.ToLower(rawType))
	if !validActionType(t) {
		return nil, &MalformedActionError{
			RuleCode: ruleCode,
			Reason:   fmt.Sprintf("unknown action type %q", rawType),
		}
	}

	str := func(key string) string {
		v, _ := ad[key].(string)
		return v
	}

	switch t {
	case ActionTag:
		key, value := str("key"), str("value")
		if key == "" {
			return nil, &MalformedActionError{RuleCode: ruleCode, Reason: "tag action missing key"}
		}
		return &Action{Type: t, Key: key, Value: value}, nil

	default:
		code := str("code")
		if code == "" {
			return nil, &MalformedActionError{
				RuleCode: ruleCode,
				Reason:   fmt.Sprintf("%s action missing code", t),
			}
		}
		return &Action{Type: t, Code: code}, nil
	}
}
