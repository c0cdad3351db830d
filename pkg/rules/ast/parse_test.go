package ast

import (
	"errors"
	"strings"
	"testing"
)

const validDoc = `{
  "rulesetCode": "GRC_DERIVATION",
  "name": "Baseline derivation",
  "version": 3,
  "tenant": "acme",
  "status": "Active",
  "rules": [
    {
      "ruleCode": "SA_BASELINE",
      "priority": 10,
      "condition": {"field": "country", "operator": "equals", "value": "SA"},
      "actions": [
        {"type": "apply_baseline", "code": "PDPL_BASE"},
        {"type": "tag", "key": "jurisdiction", "value": "KSA"}
      ]
    },
    {
      "ruleCode": "FINANCE",
      "priority": 20,
      "status": "inactive",
      "condition": {
        "combinator": "or",
        "conditions": [
          {"field": "sector", "operator": "equals", "value": "banking"},
          {"field": "sector", "operator": "equals", "value": "insurance"}
        ]
      },
      "actions": [{"type": "apply_package", "code": "SAMA_CSF"}]
    }
  ]
}`

func TestParse_ValidDocument(t *testing.T) {
	rs, err := Parse([]byte(validDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if rs.RulesetCode != "GRC_DERIVATION" || rs.Version != 3 || rs.Tenant != "acme" {
		t.Errorf("header = %s v%d tenant=%s", rs.RulesetCode, rs.Version, rs.Tenant)
	}
	if rs.Status != RulesetStatusActive {
		t.Errorf("status = %q, want Active", rs.Status)
	}
	if len(rs.Rules) != 2 {
		t.Fatalf("rules = %d, want 2", len(rs.Rules))
	}

	first := rs.Rules[0]
	if first.Status != RuleStatusActive {
		t.Errorf("absent rule status should default to ACTIVE, got %q", first.Status)
	}
	if first.Condition == nil || first.Condition.Operator != OperatorEquals {
		t.Errorf("first condition = %+v", first.Condition)
	}
	if len(first.Actions) != 2 || first.Actions[1].Key != "jurisdiction" {
		t.Errorf("first actions = %+v", first.Actions)
	}

	second := rs.Rules[1]
	if second.Status != RuleStatusInactive {
		t.Errorf("status = %q, want INACTIVE (case-folded)", second.Status)
	}
	if second.Condition.Combinator != CombinatorOr || len(second.Condition.Children) != 2 {
		t.Errorf("second condition = %+v", second.Condition)
	}
}

func TestParse_DefaultStatuses(t *testing.T) {
	rs, err := Parse([]byte(`{
		"rulesetCode": "R", "version": 1,
		"rules": [{"ruleCode": "A", "actions": [{"type": "tag", "key": "k", "value": "v"}]}]
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rs.Status != RulesetStatusDraft {
		t.Errorf("ruleset status = %q, want Draft default", rs.Status)
	}
	if rs.Rules[0].Condition != nil {
		t.Errorf("absent condition should parse as nil, got %+v", rs.Rules[0].Condition)
	}
}

func TestParse_MalformedConditions(t *testing.T) {
	doc := func(condition string) string {
		return `{"rulesetCode": "R", "version": 1, "rules": [
			{"ruleCode": "A", "condition": ` + condition + `,
			 "actions": [{"type": "apply_baseline", "code": "B"}]}]}`
	}

	tests := []struct {
		name      string
		condition string
		reason    string
	}{
		{
			"unknown operator",
			`{"field": "country", "operator": "regex", "value": "SA"}`,
			`unknown operator "regex"`,
		},
		{
			"unknown combinator",
			`{"combinator": "xor", "conditions": [{"field": "a", "operator": "equals", "value": "1"}]}`,
			`unknown combinator "xor"`,
		},
		{
			"mixed node",
			`{"combinator": "and", "field": "country", "operator": "equals", "value": "SA"}`,
			"mixes combinator and leaf",
		},
		{
			"empty node",
			`{}`,
			"empty condition node",
		},
		{
			"null child",
			`{"combinator": "and", "conditions": [null]}`,
			"null child",
		},
		{
			"leaf missing field",
			`{"operator": "equals", "value": "SA"}`,
			"missing field",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(doc(tt.condition)))
			var verr *RulesetValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want RulesetValidationError", err)
			}
			if !strings.Contains(verr.Error(), tt.reason) {
				t.Errorf("error %q does not mention %q", verr.Error(), tt.reason)
			}
		})
	}
}

func TestParse_MalformedActions(t *testing.T) {
	doc := func(action string) string {
		return `{"rulesetCode": "R", "version": 1, "rules": [
			{"ruleCode": "A", "actions": [` + action + `]}]}`
	}

	tests := []struct {
		name   string
		action string
		reason string
	}{
		{"unknown type", `{"type": "explode"}`, `unknown action type "explode"`},
		{"apply missing code", `{"type": "apply_template"}`, "missing code"},
		{"tag missing key", `{"type": "tag", "value": "v"}`, "missing key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(doc(tt.action)))
			var verr *RulesetValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want RulesetValidationError", err)
			}
			if !strings.Contains(verr.Error(), tt.reason) {
				t.Errorf("error %q does not mention %q", verr.Error(), tt.reason)
			}
		})
	}
}

func TestParse_StructuralProblems(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		reason string
	}{
		{
			"empty ruleset",
			`{"rulesetCode": "R", "version": 1, "rules": []}`,
			ErrEmptyRuleset.Error(),
		},
		{
			"missing ruleset code",
			`{"version": 1, "rules": [{"ruleCode": "A", "actions": [{"type": "tag", "key": "k"}]}]}`,
			"rulesetCode is required",
		},
		{
			"bad version",
			`{"rulesetCode": "R", "version": 0, "rules": [{"ruleCode": "A", "actions": [{"type": "tag", "key": "k"}]}]}`,
			"version must be >= 1",
		},
		{
			"duplicate rule codes",
			`{"rulesetCode": "R", "version": 1, "rules": [
				{"ruleCode": "A", "actions": [{"type": "tag", "key": "k"}]},
				{"ruleCode": "A", "actions": [{"type": "tag", "key": "k"}]}]}`,
			`duplicate rule code "A"`,
		},
		{
			"rule with no actions",
			`{"rulesetCode": "R", "version": 1, "rules": [{"ruleCode": "A"}]}`,
			"has no actions",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("error %q does not mention %q", err, tt.reason)
			}
		})
	}
}

func TestParse_AggregatesAllProblems(t *testing.T) {
	_, err := Parse([]byte(`{"version": 0, "rules": [
		{"ruleCode": "A", "condition": {}, "actions": [{"type": "bogus"}]},
		{"ruleCode": "A", "actions": []}
	]}`))
	var verr *RulesetValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want RulesetValidationError", err)
	}
	if len(verr.Errors) < 5 {
		t.Errorf("got %d problems %v, want all reported in one pass", len(verr.Errors), verr.Errors)
	}
}

func TestParseYAML(t *testing.T) {
	rs, err := ParseYAML([]byte(`
rulesetCode: GRC_DERIVATION
version: 1
rules:
  - ruleCode: A
    priority: 10
    condition:
      field: country
      operator: equals
      value: SA
    actions:
      - type: apply_baseline
        code: PDPL_BASE
`))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if len(rs.Rules) != 1 || rs.Rules[0].Actions[0].Code != "PDPL_BASE" {
		t.Errorf("rules = %+v", rs.Rules)
	}
}

func TestActiveRules_Ordering(t *testing.T) {
	rs, err := Parse([]byte(`{"rulesetCode": "R", "version": 1, "rules": [
		{"ruleCode": "LATE", "priority": 30, "actions": [{"type": "tag", "key": "k"}]},
		{"ruleCode": "TIE_A", "priority": 10, "actions": [{"type": "tag", "key": "k"}]},
		{"ruleCode": "OFF", "priority": 1, "status": "INACTIVE", "actions": [{"type": "tag", "key": "k"}]},
		{"ruleCode": "TIE_B", "priority": 10, "actions": [{"type": "tag", "key": "k"}]}
	]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var codes []string
	for _, r := range rs.ActiveRules() {
		codes = append(codes, r.RuleCode)
	}
	want := []string{"TIE_A", "TIE_B", "LATE"}
	if len(codes) != len(want) {
		t.Fatalf("active rules = %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("active rules = %v, want %v (priority then document order)", codes, want)
		}
	}
}
