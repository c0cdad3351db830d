package rules

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"mizan-hq/mizan/pkg/decision"
	"mizan-hq/mizan/pkg/decision/store"
	"mizan-hq/mizan/pkg/rules/ast"
	"mizan-hq/mizan/pkg/rules/engine"
)

func newTestManager(t *testing.T) (*Manager, *store.MemoryStore) {
	t.Helper()
	audit := store.NewMemoryStore()
	m, err := NewManager(NewRegistry(), audit, ManagerConfig{}, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m, audit
}

func derivationRuleset(version int) *ast.Ruleset {
	return &ast.Ruleset{
		RulesetCode: "GRC_DERIVATION",
		Version:     version,
		Tenant:      "acme",
		Status:      ast.RulesetStatusActive,
		Rules: []*ast.Rule{
			{
				RuleCode: "SA_BASELINE", Priority: 10, Status: ast.RuleStatusActive,
				Condition: &ast.Condition{Field: "country", Operator: ast.OperatorEquals, Value: "SA"},
				Actions:   []*ast.Action{{Type: ast.ActionApplyBaseline, Code: "PDPL_BASE"}},
			},
			{
				RuleCode: "LARGE_ORG", Priority: 20, Status: ast.RuleStatusActive,
				Condition: &ast.Condition{Field: "employeeCount", Operator: ast.OperatorGte, Value: "250"},
				Actions:   []*ast.Action{{Type: ast.ActionApplyPackage, Code: "ENTERPRISE"}},
			},
		},
	}
}

func TestDeriveScope(t *testing.T) {
	m, audit := newTestManager(t)
	if err := m.Registry().Activate(derivationRuleset(1)); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	profile := engine.Profile{"country": "SA", "employeeCount": 120}

	res, err := m.DeriveScope(context.Background(), "acme", profile)
	if err != nil {
		t.Fatalf("DeriveScope: %v", err)
	}

	if !res.Scope.HasBaseline("PDPL_BASE") {
		t.Errorf("scope missing PDPL_BASE: %+v", res.Scope)
	}
	if res.Scope.HasPackage("ENTERPRISE") {
		t.Error("ENTERPRISE applied below the employee threshold")
	}

	rec := res.Record
	if rec.Tenant != "acme" || rec.PolicyType != decision.PolicyTypeScopeDerivation {
		t.Errorf("record header = %s/%s", rec.Tenant, rec.PolicyType)
	}
	if rec.PolicyVersion != "GRC_DERIVATION@1" {
		t.Errorf("policy version = %q", rec.PolicyVersion)
	}
	if rec.ContextHash == "" || rec.ContextJSON == "" {
		t.Error("context hash or canonical JSON missing")
	}
	if rec.RulesEvaluated != 2 || rec.RulesMatched != 1 {
		t.Errorf("counts = %d/%d, want 2 evaluated, 1 matched", rec.RulesEvaluated, rec.RulesMatched)
	}
	if rec.IsCached {
		t.Error("fresh derivation marked as cached")
	}

	n, _ := audit.Count(context.Background())
	if n != 1 {
		t.Errorf("audit records = %d, want 1", n)
	}
}

func TestDeriveScope_CachedRepeat(t *testing.T) {
	m, audit := newTestManager(t)
	if err := m.Registry().Activate(derivationRuleset(1)); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	profile := engine.Profile{"country": "SA"}

	first, err := m.DeriveScope(context.Background(), "acme", profile)
	if err != nil {
		t.Fatalf("first DeriveScope: %v", err)
	}
	second, err := m.DeriveScope(context.Background(), "acme", profile)
	if err != nil {
		t.Fatalf("second DeriveScope: %v", err)
	}

	if !reflect.DeepEqual(first.Scope, second.Scope) {
		t.Errorf("cached scope differs:\nfirst  %+v\nsecond %+v", first.Scope, second.Scope)
	}
	if !second.Record.IsCached {
		t.Error("repeat derivation not served from cache")
	}
	if second.Record.ContextHash != first.Record.ContextHash {
		t.Error("context hash changed between identical requests")
	}

	// The cache hit does not write a second audit record.
	n, _ := audit.Count(context.Background())
	if n != 1 {
		t.Errorf("audit records = %d, want 1", n)
	}
}

func TestDeriveScope_VersionBumpInvalidatesCache(t *testing.T) {
	m, audit := newTestManager(t)
	if err := m.Registry().Activate(derivationRuleset(1)); err != nil {
		t.Fatalf("Activate v1: %v", err)
	}
	profile := engine.Profile{"country": "SA"}

	if _, err := m.DeriveScope(context.Background(), "acme", profile); err != nil {
		t.Fatalf("DeriveScope v1: %v", err)
	}

	if err := m.Registry().Activate(derivationRuleset(2)); err != nil {
		t.Fatalf("Activate v2: %v", err)
	}
	res, err := m.DeriveScope(context.Background(), "acme", profile)
	if err != nil {
		t.Fatalf("DeriveScope v2: %v", err)
	}

	if res.Record.IsCached {
		t.Error("version bump served a stale cached scope")
	}
	if res.Record.PolicyVersion != "GRC_DERIVATION@2" {
		t.Errorf("policy version = %q, want GRC_DERIVATION@2", res.Record.PolicyVersion)
	}
	n, _ := audit.Count(context.Background())
	if n != 2 {
		t.Errorf("audit records = %d, want 2", n)
	}
}

func TestDeriveScope_NoActiveRuleset(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.DeriveScope(context.Background(), "acme", engine.Profile{})
	if !errors.Is(err, ErrRulesetNotActive) {
		t.Errorf("err = %v, want ErrRulesetNotActive", err)
	}
}
