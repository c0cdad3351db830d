package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"mizan-hq/mizan/pkg/agent"
	"mizan-hq/mizan/pkg/agent/gate"
	"mizan-hq/mizan/pkg/agent/governor"
	"mizan-hq/mizan/pkg/decision"
	"mizan-hq/mizan/pkg/decision/store"
	"mizan-hq/mizan/pkg/rules"
	"mizan-hq/mizan/pkg/rules/engine"
	"mizan-hq/mizan/pkg/workflow"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	writeJSON(w, status, body)
}

// writeDomainError maps engine errors onto HTTP statuses with stable
// error codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		notPermitted *governor.ActionNotPermittedError
		sodViolation *governor.SoDViolationError
		invalidTrans *gate.InvalidTransitionError
		expired      *gate.ApprovalExpiredError
		stepErr      *workflow.StepError
		wrongRole    *workflow.WrongAssigneeError
	)
	switch {
	case errors.As(err, &notPermitted):
		writeError(w, http.StatusForbidden, "ActionNotPermitted", err.Error())
	case errors.As(err, &sodViolation):
		writeError(w, http.StatusForbidden, "SoDViolation", err.Error())
	case errors.As(err, &invalidTrans):
		writeError(w, http.StatusConflict, "InvalidStateTransition", err.Error())
	case errors.As(err, &expired):
		writeError(w, http.StatusGone, "ApprovalExpired", err.Error())
	case errors.As(err, &stepErr):
		writeError(w, http.StatusConflict, "InvalidStateTransition", err.Error())
	case errors.As(err, &wrongRole):
		writeError(w, http.StatusForbidden, "NotAuthorized", err.Error())
	case errors.Is(err, rules.ErrRulesetNotActive):
		writeError(w, http.StatusNotFound, "RulesetNotActive", err.Error())
	case errors.Is(err, agent.ErrUnknownAgent):
		writeError(w, http.StatusNotFound, "UnknownAgent", err.Error())
	case errors.Is(err, gate.ErrGateNotFound):
		writeError(w, http.StatusNotFound, "GateNotFound", err.Error())
	case errors.Is(err, gate.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "NotAuthorized", err.Error())
	case errors.Is(err, workflow.ErrInstanceNotFound):
		writeError(w, http.StatusNotFound, "WorkflowNotFound", err.Error())
	case errors.Is(err, workflow.ErrUnknownWorkflowType):
		writeError(w, http.StatusNotFound, "UnknownWorkflowType", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Internal", err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "MalformedRequest", err.Error())
		return false
	}
	return true
}

type deriveRequest struct {
	Tenant  string         `json:"tenant"`
	Profile engine.Profile `json:"profile"`
}

type deriveResponse struct {
	Scope  *engine.DerivedScope `json:"scope"`
	Record *decision.Record     `json:"record"`
}

func (s *Server) handleDeriveScope(w http.ResponseWriter, r *http.Request) {
	var req deriveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Tenant == "" {
		writeError(w, http.StatusBadRequest, "MalformedRequest", "tenant is required")
		return
	}

	result, err := s.rules.DeriveScope(r.Context(), req.Tenant, req.Profile)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deriveResponse{Scope: result.Scope, Record: result.Record})
}

func (s *Server) handleAgentAction(w http.ResponseWriter, r *http.Request) {
	var req governor.Request
	if !decodeBody(w, r, &req) {
		return
	}
	if req.AgentCode == "" || req.Action == "" {
		writeError(w, http.StatusBadRequest, "MalformedRequest", "agentCode and action are required")
		return
	}

	verdict, err := s.governor.EvaluateAgentAction(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

func (s *Server) handleGetGate(w http.ResponseWriter, r *http.Request) {
	g, err := s.gates.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

type decideGateRequest struct {
	Role     string `json:"role"`
	Decision string `json:"decision"`
}

func (s *Server) handleDecideGate(w http.ResponseWriter, r *http.Request) {
	var req decideGateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var d gate.Decision
	switch req.Decision {
	case string(gate.DecisionApprove):
		d = gate.DecisionApprove
	case string(gate.DecisionReject):
		d = gate.DecisionReject
	default:
		writeError(w, http.StatusBadRequest, "MalformedRequest", "decision must be Approve or Reject")
		return
	}

	g, err := s.gates.Decide(r.Context(), r.PathValue("id"), req.Role, d)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

type sweepResponse struct {
	Swept []*gate.Gate `json:"swept"`
}

func (s *Server) handleSweepGates(w http.ResponseWriter, r *http.Request) {
	swept, err := s.gates.Sweep(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sweepResponse{Swept: swept})
}

func (s *Server) handleQueryDecisions(w http.ResponseWriter, r *http.Request) {
	if s.decisions == nil {
		writeError(w, http.StatusNotFound, "NotConfigured", "decision store not configured")
		return
	}

	filter := store.Filter{
		Tenant:     r.URL.Query().Get("tenant"),
		PolicyType: decision.PolicyType(r.URL.Query().Get("type")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "MalformedRequest", "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "MalformedRequest", "since must be RFC 3339")
			return
		}
		filter.Since = t
	}

	records, err := s.decisions.Query(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decisions": records})
}

type startWorkflowRequest struct {
	WorkflowType string `json:"workflowType"`
	EntityType   string `json:"entityType"`
	EntityID     string `json:"entityId"`
}

func (s *Server) handleStartWorkflow(w http.ResponseWriter, r *http.Request) {
	var req startWorkflowRequest
	if !decodeBody(w, r, &req) {
		return
	}
	inst, err := s.workflows.Start(r.Context(), req.WorkflowType, req.EntityType, req.EntityID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	inst, err := s.workflows.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

type advanceWorkflowRequest struct {
	StepID string `json:"stepId"`
	Role   string `json:"role"`
}

func (s *Server) handleAdvanceWorkflow(w http.ResponseWriter, r *http.Request) {
	var req advanceWorkflowRequest
	if !decodeBody(w, r, &req) {
		return
	}
	inst, err := s.workflows.AdvanceStep(r.Context(), r.PathValue("id"), req.StepID, req.Role)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
