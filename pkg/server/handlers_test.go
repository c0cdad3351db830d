package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"mizan-hq/mizan/pkg/agent"
	"mizan-hq/mizan/pkg/agent/gate"
	"mizan-hq/mizan/pkg/agent/governor"
	"mizan-hq/mizan/pkg/config"
	"mizan-hq/mizan/pkg/decision/store"
	"mizan-hq/mizan/pkg/rules"
	"mizan-hq/mizan/pkg/rules/ast"
	"mizan-hq/mizan/pkg/workflow"
)

// newTestServer wires a full engine over memory backends and returns
// its handler.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	audit := store.NewMemoryStore()
	manager, err := rules.NewManager(rules.NewRegistry(), audit, rules.ManagerConfig{}, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	rs, err := ast.Parse([]byte(`{
		"rulesetCode": "GRC_DERIVATION", "version": 1, "tenant": "acme", "status": "Active",
		"rules": [{
			"ruleCode": "SA_BASELINE", "priority": 10,
			"condition": {"field": "country", "operator": "equals", "value": "SA"},
			"actions": [{"type": "apply_baseline", "code": "PDPL_BASE"}]
		}]
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := manager.Registry().Activate(rs); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	catalog, err := agent.NewCatalog([]*agent.Definition{{
		AgentCode:                       "EVIDENCE_COLLECTOR",
		AgentType:                       "EVIDENCE_AGENT",
		AllowedActions:                  []string{"CollectEvidence", "ApproveEvidence"},
		ApprovalRequiredActions:         []string{"ApproveEvidence"},
		AutoApprovalConfidenceThreshold: 85,
		OversightRole:                   "ComplianceManager",
		EscalationRole:                  "CISO",
	}})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	gates := gate.NewService(gate.NewMemoryStore(), nil, nil, nil)
	gov, err := governor.New(governor.Config{Catalog: catalog, Gates: gates, Store: audit}, nil)
	if err != nil {
		t.Fatalf("governor.New: %v", err)
	}

	runner, err := workflow.NewRunner([]*workflow.Definition{{
		WorkflowType: "GAP_ASSESSMENT",
		Steps: []workflow.Step{
			{StepID: "scope_review", AssigneeRole: "ComplianceManager", DaysToComplete: 5},
			{StepID: "signoff", AssigneeRole: "CISO", DaysToComplete: 3},
		},
	}}, nil)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	cfg := config.NewDefault()
	srv, err := NewServer(&cfg.Server, Components{
		Rules:     manager,
		Governor:  gov,
		Gates:     gates,
		Workflows: runner,
		Decisions: audit,
	}, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	decode(t, rec, &body)
	return body.Error.Code
}

func TestDeriveScopeEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/scope/derive", map[string]any{
		"tenant":  "acme",
		"profile": map[string]any{"country": "SA"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Scope struct {
			Baselines []struct {
				Code string `json:"code"`
			} `json:"baselines"`
		} `json:"scope"`
		Record struct {
			PolicyVersion string `json:"policyVersion"`
			IsCached      bool   `json:"isCached"`
		} `json:"record"`
	}
	decode(t, rec, &resp)
	if len(resp.Scope.Baselines) != 1 || resp.Scope.Baselines[0].Code != "PDPL_BASE" {
		t.Errorf("scope = %+v", resp.Scope)
	}
	if resp.Record.PolicyVersion != "GRC_DERIVATION@1" || resp.Record.IsCached {
		t.Errorf("record = %+v", resp.Record)
	}
}

func TestDeriveScopeEndpoint_Errors(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/scope/derive", map[string]any{
		"tenant": "globex", "profile": map[string]any{},
	})
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "RulesetNotActive" {
		t.Errorf("status = %d code = %s", rec.Code, errorCode(t, rec))
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/scope/derive", map[string]any{
		"profile": map[string]any{},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing tenant status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/scope/derive", map[string]any{
		"tenant": "acme", "profile": map[string]any{}, "bogus": true,
	})
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "MalformedRequest" {
		t.Errorf("unknown field status = %d code = %s", rec.Code, errorCode(t, rec))
	}
}

func TestAgentActionEndpoint(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/agent/actions", map[string]any{
		"tenant": "acme", "agentCode": "EVIDENCE_COLLECTOR",
		"action": "CollectEvidence", "confidence": 70,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	var verdict struct {
		Outcome         string `json:"outcome"`
		ConfidenceLevel string `json:"confidenceLevel"`
	}
	decode(t, rec, &verdict)
	if verdict.Outcome != "Approved" || verdict.ConfidenceLevel != "Medium" {
		t.Errorf("verdict = %+v", verdict)
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/agent/actions", map[string]any{
		"tenant": "acme", "agentCode": "EVIDENCE_COLLECTOR", "action": "DeleteEvidence",
	})
	if rec.Code != http.StatusForbidden || errorCode(t, rec) != "ActionNotPermitted" {
		t.Errorf("status = %d code = %s", rec.Code, errorCode(t, rec))
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/agent/actions", map[string]any{
		"tenant": "acme", "agentCode": "GHOST", "action": "CollectEvidence",
	})
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "UnknownAgent" {
		t.Errorf("status = %d code = %s", rec.Code, errorCode(t, rec))
	}
}

func TestGateDecisionFlow(t *testing.T) {
	h := newTestServer(t)

	// An approval-required action opens a gate.
	rec := doJSON(t, h, http.MethodPost, "/v1/agent/actions", map[string]any{
		"tenant": "acme", "agentCode": "EVIDENCE_COLLECTOR",
		"action": "ApproveEvidence", "confidence": 95,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	var verdict struct {
		Outcome string `json:"outcome"`
		GateID  string `json:"gateId"`
	}
	decode(t, rec, &verdict)
	if verdict.Outcome != "PendingApproval" || verdict.GateID == "" {
		t.Fatalf("verdict = %+v", verdict)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/gates/"+verdict.GateID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get gate status = %d", rec.Code)
	}
	var g struct {
		State string `json:"state"`
	}
	decode(t, rec, &g)
	if g.State != "Pending" {
		t.Errorf("gate state = %s", g.State)
	}

	// An unauthorized role cannot decide it.
	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/v1/gates/%s/decision", verdict.GateID), map[string]any{
		"role": "Intern", "decision": "Approve",
	})
	if rec.Code != http.StatusForbidden || errorCode(t, rec) != "NotAuthorized" {
		t.Errorf("status = %d code = %s", rec.Code, errorCode(t, rec))
	}

	// The oversight role approves.
	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/v1/gates/%s/decision", verdict.GateID), map[string]any{
		"role": "ComplianceManager", "decision": "Approve",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("decide status = %d body %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &g)
	if g.State != "Approved" {
		t.Errorf("gate state = %s", g.State)
	}

	// A second decision conflicts.
	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/v1/gates/%s/decision", verdict.GateID), map[string]any{
		"role": "ComplianceManager", "decision": "Reject",
	})
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "InvalidStateTransition" {
		t.Errorf("status = %d code = %s", rec.Code, errorCode(t, rec))
	}
}

func TestGateEndpoint_Misc(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/v1/gates/unknown", nil)
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "GateNotFound" {
		t.Errorf("status = %d code = %s", rec.Code, errorCode(t, rec))
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/gates/unknown/decision", map[string]any{
		"role": "ComplianceManager", "decision": "Shrug",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad verb status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/gates/sweep", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("sweep status = %d", rec.Code)
	}
	var sweep struct {
		Swept []any `json:"swept"`
	}
	decode(t, rec, &sweep)
	if len(sweep.Swept) != 0 {
		t.Errorf("swept = %+v, want none", sweep.Swept)
	}
}

func TestWorkflowEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/workflows", map[string]any{
		"workflowType": "GAP_ASSESSMENT", "entityType": "Assessment", "entityId": "ASMT-1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d body %s", rec.Code, rec.Body.String())
	}
	var inst struct {
		ID           string `json:"id"`
		CurrentState string `json:"currentState"`
		Status       string `json:"status"`
	}
	decode(t, rec, &inst)
	if inst.CurrentState != "scope_review" || inst.Status != "Running" {
		t.Errorf("instance = %+v", inst)
	}

	// Skipping ahead is rejected.
	rec = doJSON(t, h, http.MethodPost, "/v1/workflows/"+inst.ID+"/advance", map[string]any{
		"stepId": "signoff", "role": "CISO",
	})
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "InvalidStateTransition" {
		t.Errorf("skip status = %d code = %s", rec.Code, errorCode(t, rec))
	}

	// The wrong assignee is rejected.
	rec = doJSON(t, h, http.MethodPost, "/v1/workflows/"+inst.ID+"/advance", map[string]any{
		"stepId": "scope_review", "role": "CISO",
	})
	if rec.Code != http.StatusForbidden || errorCode(t, rec) != "NotAuthorized" {
		t.Errorf("wrong role status = %d code = %s", rec.Code, errorCode(t, rec))
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/workflows/"+inst.ID+"/advance", map[string]any{
		"stepId": "scope_review", "role": "ComplianceManager",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("advance status = %d body %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &inst)
	if inst.CurrentState != "signoff" {
		t.Errorf("instance = %+v", inst)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/workflows/unknown", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get unknown status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/workflows", map[string]any{
		"workflowType": "NOPE", "entityType": "Assessment", "entityId": "ASMT-2",
	})
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "UnknownWorkflowType" {
		t.Errorf("unknown type status = %d code = %s", rec.Code, errorCode(t, rec))
	}
}

func TestDecisionsEndpoint(t *testing.T) {
	h := newTestServer(t)

	// Seed two decisions: one derivation, one agent action.
	doJSON(t, h, http.MethodPost, "/v1/scope/derive", map[string]any{
		"tenant": "acme", "profile": map[string]any{"country": "SA"},
	})
	doJSON(t, h, http.MethodPost, "/v1/agent/actions", map[string]any{
		"tenant": "acme", "agentCode": "EVIDENCE_COLLECTOR", "action": "CollectEvidence", "confidence": 70,
	})

	rec := doJSON(t, h, http.MethodGet, "/v1/decisions?tenant=acme", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Decisions []struct {
			PolicyType string `json:"policyType"`
		} `json:"decisions"`
	}
	decode(t, rec, &resp)
	if len(resp.Decisions) != 2 {
		t.Fatalf("decisions = %d, want 2", len(resp.Decisions))
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/decisions?type=AgentAction", nil)
	decode(t, rec, &resp)
	if len(resp.Decisions) != 1 || resp.Decisions[0].PolicyType != "AgentAction" {
		t.Errorf("filtered decisions = %+v", resp.Decisions)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/decisions?since=notatime", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad since status = %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
