package governor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mizan-hq/mizan/pkg/agent"
	"mizan-hq/mizan/pkg/agent/gate"
	"mizan-hq/mizan/pkg/agent/sod"
	"mizan-hq/mizan/pkg/decision"
	"mizan-hq/mizan/pkg/decision/store"
)

// Outcome is the governance verdict for a proposed action.
type Outcome string

const (
	// OutcomeApproved clears the action for immediate execution.
	OutcomeApproved Outcome = "Approved"

	// OutcomePendingApproval parks the action behind an open gate.
	OutcomePendingApproval Outcome = "PendingApproval"
)

// ConfidenceLevel bands a 0-100 confidence score.
type ConfidenceLevel string

const (
	ConfidenceVeryHigh ConfidenceLevel = "VeryHigh"
	ConfidenceHigh     ConfidenceLevel = "High"
	ConfidenceMedium   ConfidenceLevel = "Medium"
	ConfidenceLow      ConfidenceLevel = "Low"
	ConfidenceVeryLow  ConfidenceLevel = "VeryLow"
)

// LevelFor bands a confidence score.
func LevelFor(score int) ConfidenceLevel {
	switch {
	case score >= 90:
		return ConfidenceVeryHigh
	case score >= 75:
		return ConfidenceHigh
	case score >= 50:
		return ConfidenceMedium
	case score >= 25:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

// Request describes one proposed agent action.
type Request struct {
	// Tenant scopes the audit trail.
	Tenant string `json:"tenant"`

	// AgentCode names the acting agent.
	AgentCode string `json:"agentCode"`

	// Action is the proposed action code.
	Action string `json:"action"`

	// Confidence is the agent's self-reported confidence (0-100).
	Confidence int `json:"confidence"`

	// ObjectType and ObjectID identify the business object acted on.
	// ObjectID drives SoD history checks; empty means no object scope.
	ObjectType string `json:"objectType,omitempty"`
	ObjectID   string `json:"objectId,omitempty"`
}

// Verdict is the result of a successful evaluation. A rejected action
// returns a typed error instead.
type Verdict struct {
	Outcome Outcome `json:"outcome"`

	// GateID is set when Outcome is PendingApproval.
	GateID string `json:"gateId,omitempty"`

	// BypassedGate marks an approval-required action that skipped its
	// gate on a confidence bypass.
	BypassedGate bool `json:"bypassedGate,omitempty"`

	ConfidenceLevel ConfidenceLevel `json:"confidenceLevel"`

	// Warnings carries Warn-enforced SoD conflicts. The action
	// proceeds but the conflicts are logged and recorded.
	Warnings []*sod.Conflict `json:"warnings,omitempty"`

	// Record is the audit record written for this evaluation.
	Record *decision.Record `json:"record,omitempty"`
}

// Metrics receives governor evaluation events.
type Metrics interface {
	ActionEvaluated(agentCode string, outcome string)
}

// Governor evaluates proposed agent actions.
type Governor struct {
	catalog *agent.Catalog
	matrix  *sod.Matrix
	gates   *gate.Service
	actions sod.ActionLog
	store   store.Store
	logger  *slog.Logger
	metrics Metrics
	now     func() time.Time
}

// Config wires a Governor. Matrix, store, and metrics may be nil;
// a nil matrix disables SoD checks, a nil store disables audit.
type Config struct {
	Catalog   *agent.Catalog
	Matrix    *sod.Matrix
	Gates     *gate.Service
	ActionLog sod.ActionLog
	Store     store.Store
	Metrics   Metrics
}

// New creates a Governor.
func New(cfg Config, logger *slog.Logger) (*Governor, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if cfg.Gates == nil {
		return nil, fmt.Errorf("gate service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Governor{
		catalog: cfg.Catalog,
		matrix:  cfg.Matrix,
		gates:   cfg.Gates,
		actions: cfg.ActionLog,
		store:   cfg.Store,
		logger:  logger.With("component", "agent.governor"),
		metrics: cfg.Metrics,
		now:     time.Now,
	}, nil
}

// SetClock overrides the governor clock. Intended for tests.
func (g *Governor) SetClock(now func() time.Time) {
	g.now = now
}

// EvaluateAgentAction runs the full governance pipeline for one
// proposed action. Checks run in fixed order: allow-list, SoD matrix,
// approval policy. The first failed check wins; an action that is both
// outside the allow-list and SoD-conflicted reports ActionNotPermitted.
func (g *Governor) EvaluateAgentAction(ctx context.Context, req Request) (*Verdict, error) {
	def, err := g.catalog.Lookup(req.AgentCode)
	if err != nil {
		return nil, err
	}

	if !def.MayPerform(req.Action) {
		err := &ActionNotPermittedError{AgentCode: req.AgentCode, Action: req.Action}
		g.audit(ctx, req, "Denied", err.Error())
		g.observe(req.AgentCode, "denied")
		return nil, err
	}

	var warnings []*sod.Conflict
	if g.matrix != nil {
		conflict, cerr := g.matrix.Check(ctx, req.AgentCode, def.AgentType, req.Action, req.ObjectID)
		if cerr != nil {
			return nil, fmt.Errorf("sod check: %w", cerr)
		}
		if conflict != nil {
			if conflict.Blocking() {
				err := &SoDViolationError{Conflict: conflict}
				g.audit(ctx, req, "Denied", err.Error())
				g.observe(req.AgentCode, "denied")
				return nil, err
			}
			warnings = append(warnings, conflict)
		}
	}

	verdict := &Verdict{
		Outcome:         OutcomeApproved,
		ConfidenceLevel: LevelFor(req.Confidence),
		Warnings:        warnings,
	}

	if def.RequiresApproval(req.Action) {
		bypass := def.AllowConfidenceBypass &&
			req.Confidence >= def.AutoApprovalConfidenceThreshold
		if !bypass {
			opened, gerr := g.gates.Open(ctx, gate.Spec{
				AgentCode:                 req.AgentCode,
				Action:                    req.Action,
				ObjectID:                  req.ObjectID,
				Confidence:                req.Confidence,
				ApproverRole:              def.OversightRole,
				EscalationRole:            def.EscalationRole,
				BypassConfidenceThreshold: def.AutoApprovalConfidenceThreshold,
				SLA:                       time.Duration(def.ApprovalSLAHours) * time.Hour,
				AutoReject:                time.Duration(def.AutoRejectHours) * time.Hour,
			})
			if gerr != nil {
				return nil, fmt.Errorf("open approval gate: %w", gerr)
			}
			verdict.Outcome = OutcomePendingApproval
			verdict.GateID = opened.ID
			verdict.Record = g.audit(ctx, req, string(OutcomePendingApproval),
				fmt.Sprintf("approval required for action %q, gate %s opened", req.Action, opened.ID))
			g.observe(req.AgentCode, "pending")
			return verdict, nil
		}
		verdict.BypassedGate = true
	}

	// Approved actions enter the SoD history so later proposals on the
	// same object see them.
	if g.actions != nil && req.ObjectID != "" {
		perf := sod.PerformedAction{
			AgentCode: req.AgentCode,
			AgentType: def.AgentType,
			Action:    req.Action,
			ObjectID:  req.ObjectID,
			At:        g.now().UTC(),
		}
		if rerr := g.actions.Record(ctx, perf); rerr != nil {
			g.logger.Error("failed to record performed action", "error", rerr)
		}
	}

	reason := fmt.Sprintf("action %q within allow-list", req.Action)
	if verdict.BypassedGate {
		reason = fmt.Sprintf("action %q auto-approved on confidence %d (threshold %d)",
			req.Action, req.Confidence, def.AutoApprovalConfidenceThreshold)
	}
	verdict.Record = g.audit(ctx, req, string(OutcomeApproved), reason)
	g.observe(req.AgentCode, "approved")
	return verdict, nil
}

func (g *Governor) observe(agentCode, outcome string) {
	if g.metrics != nil {
		g.metrics.ActionEvaluated(agentCode, outcome)
	}
}

// audit writes the evaluation to the decision store. Audit failures
// are logged, never surfaced: the verdict stands either way.
func (g *Governor) audit(ctx context.Context, req Request, outcome, reason string) *decision.Record {
	rec := decision.NewRecord(req.Tenant, decision.PolicyTypeAgentAction)
	rec.PolicyVersion = "agent@" + req.AgentCode
	rec.Decision = outcome
	rec.Reason = reason
	rec.ConfidenceScore = req.Confidence
	rec.RelatedEntityType = req.ObjectType
	rec.RelatedEntityID = req.ObjectID
	rec.EvaluatedAt = g.now().UTC()

	hash, canonical, err := decision.ContextHash(rec.PolicyVersion, req)
	if err != nil {
		g.logger.Error("failed to hash action context", "error", err)
	} else {
		rec.ContextHash = hash
		rec.ContextJSON = canonical
	}

	if g.store != nil {
		if err := g.store.Store(ctx, rec); err != nil {
			g.logger.Error("failed to store agent action decision", "error", err)
		}
	}
	return rec
}
