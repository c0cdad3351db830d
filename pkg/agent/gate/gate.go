// Package gate tracks pending human approvals for agent actions from
// creation through their terminal decision.
//
// A gate is created by the governor when an action needs oversight and is
// mutated only through the state machine in this package: an authorized
// approver decides it, the SLA sweep escalates it past slaDueAt, and the
// sweep auto-rejects it past autoRejectAt. Terminal gates are retained
// forever, never deleted.
package gate

import (
	"time"

	"github.com/google/uuid"
)

// State is the gate lifecycle state.
type State string

const (
	// StatePending awaits a decision from the approver role.
	StatePending State = "Pending"

	// StateEscalated has breached its SLA; the escalation role is notified
	// but the gate remains actionable until autoRejectAt.
	StateEscalated State = "Escalated"

	// StateApproved is terminal: an authorized approver allowed the action.
	StateApproved State = "Approved"

	// StateRejected is terminal: an authorized approver denied the action.
	StateRejected State = "Rejected"

	// StateAutoRejected is terminal: the auto-reject deadline passed with
	// no decision.
	StateAutoRejected State = "AutoRejected"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	switch s {
	case StateApproved, StateRejected, StateAutoRejected:
		return true
	default:
		return false
	}
}

// Actionable reports whether an approver can still decide the gate.
// Escalation does not forfeit the approval window.
func (s State) Actionable() bool {
	return s == StatePending || s == StateEscalated
}

// Decision is a manual approver verdict.
type Decision string

const (
	DecisionApprove Decision = "Approve"
	DecisionReject  Decision = "Reject"
)

// Gate is one pending (or decided) approval.
type Gate struct {
	// ID uniquely identifies the gate; returned to the agent as the
	// PendingApproval handle.
	ID string `json:"id"`

	// AgentCode and Action identify what is awaiting approval.
	AgentCode string `json:"agentCode"`
	Action    string `json:"action"`

	// ObjectID is the business object the action concerns.
	ObjectID string `json:"objectId,omitempty"`

	// Confidence is the score the agent presented when the gate opened.
	Confidence int `json:"confidence"`

	// ApproverRole may decide the gate; EscalationRole is notified on SLA
	// breach and holds decide authority through the directory.
	ApproverRole   string `json:"approverRole"`
	EscalationRole string `json:"escalationRole"`

	// BypassConfidenceThreshold is the agent's threshold frozen at gate
	// creation, kept for audit even if the agent definition changes later.
	BypassConfidenceThreshold int `json:"bypassConfidenceThreshold"`

	State State `json:"state"`

	CreatedAt time.Time `json:"createdAt"`

	// SlaDueAt is when the gate escalates; AutoRejectAt is when it
	// auto-rejects. CreatedAt < SlaDueAt < AutoRejectAt always holds.
	SlaDueAt     time.Time `json:"slaDueAt"`
	AutoRejectAt time.Time `json:"autoRejectAt"`

	EscalatedAt time.Time `json:"escalatedAt,omitempty"`

	// DecidedBy and DecidedAt record the manual decision, when one was
	// made before a deadline fired.
	DecidedBy string    `json:"decidedBy,omitempty"`
	DecidedAt time.Time `json:"decidedAt,omitempty"`
}

// Spec carries the inputs for opening a gate.
type Spec struct {
	AgentCode                 string
	Action                    string
	ObjectID                  string
	Confidence                int
	ApproverRole              string
	EscalationRole            string
	BypassConfidenceThreshold int
	SLA                       time.Duration
	AutoReject                time.Duration
}

// New opens a Pending gate from the spec.
func New(spec Spec, now time.Time) *Gate {
	now = now.UTC()
	return &Gate{
		ID:                        uuid.NewString(),
		AgentCode:                 spec.AgentCode,
		Action:                    spec.Action,
		ObjectID:                  spec.ObjectID,
		Confidence:                spec.Confidence,
		ApproverRole:              spec.ApproverRole,
		EscalationRole:            spec.EscalationRole,
		BypassConfidenceThreshold: spec.BypassConfidenceThreshold,
		State:                     StatePending,
		CreatedAt:                 now,
		SlaDueAt:                  now.Add(spec.SLA),
		AutoRejectAt:              now.Add(spec.AutoReject),
	}
}

// decide applies a manual decision. The caller has already checked approver
// authority; this enforces state and deadline invariants.
func (g *Gate) decide(decision Decision, approverRole string, now time.Time) error {
	if g.State.Terminal() {
		if g.State == StateAutoRejected {
			return &ApprovalExpiredError{GateID: g.ID, AutoRejectedAt: g.AutoRejectAt}
		}
		return &InvalidTransitionError{GateID: g.ID, From: g.State, Attempted: string(decision)}
	}
	if !now.Before(g.AutoRejectAt) {
		// The sweep has not run yet but the window is gone; treat
		// exactly as if the gate were already auto-rejected.
		return &ApprovalExpiredError{GateID: g.ID, AutoRejectedAt: g.AutoRejectAt}
	}

	switch decision {
	case DecisionApprove:
		g.State = StateApproved
	case DecisionReject:
		g.State = StateRejected
	default:
		return &InvalidTransitionError{GateID: g.ID, From: g.State, Attempted: string(decision)}
	}
	g.DecidedBy = approverRole
	g.DecidedAt = now.UTC()
	return nil
}

// sweep applies deadline-driven transitions. It is idempotent: a terminal
// gate is a no-op, and a gate whose deadlines have not passed is untouched.
// The returned bool reports whether the gate changed.
func (g *Gate) sweep(now time.Time) bool {
	if g.State.Terminal() {
		return false
	}

	if !now.Before(g.AutoRejectAt) {
		g.State = StateAutoRejected
		return true
	}

	if g.State == StatePending && !now.Before(g.SlaDueAt) {
		g.State = StateEscalated
		g.EscalatedAt = now.UTC()
		return true
	}

	return false
}
