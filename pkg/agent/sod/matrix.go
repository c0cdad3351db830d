package sod

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Matrix checks proposed agent actions against the active SoD rules and the
// object-scoped action log. Detected conflicts, including non-blocking Warn
// conflicts, are retained for audit.
type Matrix struct {
	rules  []*Rule
	log    ActionLog
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	violations []Conflict
}

// NewMatrix creates a conflict matrix over the given rules and action log.
// Inactive rules are dropped at construction.
func NewMatrix(rules []*Rule, log ActionLog, logger *slog.Logger) (*Matrix, error) {
	if log == nil {
		return nil, fmt.Errorf("action log cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	active := make([]*Rule, 0, len(rules))
	for _, r := range rules {
		if r.RuleCode == "" || r.Action1 == "" || r.Action2 == "" {
			return nil, fmt.Errorf("sod rule %q: ruleCode, action1 and action2 are required", r.RuleCode)
		}
		switch r.Enforcement {
		case EnforcementBlock, EnforcementWarn:
		default:
			return nil, fmt.Errorf("sod rule %q: unknown enforcement %q", r.RuleCode, r.Enforcement)
		}
		if r.Active {
			active = append(active, r)
		}
	}

	return &Matrix{
		rules:  active,
		log:    log,
		logger: logger.With("component", "agent.sod"),
		now:    time.Now,
	}, nil
}

// SetClock overrides the matrix's time source. Tests use this for
// deterministic conflict timestamps.
func (m *Matrix) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Check evaluates a proposed action against every active rule.
//
// A rule applies when the proposed action matches its Action2 and the
// requesting actor's type is among Action2AgentTypes. The conflict fires if
// Action1 was already performed on the same object either by an actor whose
// type is among Action1AgentTypes, or by the same actor identity regardless
// of type (the self-referential form: one actor never holds both sides).
//
// The first matching conflict is returned; Block beats Warn when both kinds
// of rule would fire. A nil conflict means the action is clean.
func (m *Matrix) Check(ctx context.Context, agentCode, agentType, action, objectID string) (*Conflict, error) {
	if objectID == "" {
		// No object scope means nothing to conflict against.
		return nil, nil
	}

	prior, err := m.log.Performed(ctx, objectID)
	if err != nil {
		return nil, fmt.Errorf("read action log for object %q: %w", objectID, err)
	}
	if len(prior) == 0 {
		return nil, nil
	}

	var warn *Conflict
	for _, rule := range m.rules {
		if rule.Action2 != action || !matchesType(rule.Action2AgentTypes, agentType) {
			continue
		}

		for _, p := range prior {
			if p.Action != rule.Action1 {
				continue
			}
			sameIdentity := p.AgentCode == agentCode
			if !sameIdentity && !matchesType(rule.Action1AgentTypes, p.AgentType) {
				continue
			}

			conflict := &Conflict{
				RuleCode:       rule.RuleCode,
				Enforcement:    rule.Enforcement,
				Prior:          p,
				ProposedAction: action,
				ObjectID:       objectID,
				DetectedAt:     m.clock(),
			}
			m.recordViolation(*conflict)

			if conflict.Blocking() {
				return conflict, nil
			}
			if warn == nil {
				warn = conflict
			}
		}
	}
	return warn, nil
}

// clock reads the time source under the mutex.
func (m *Matrix) clock() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now().UTC()
}

// recordViolation retains a conflict for audit and logs it.
func (m *Matrix) recordViolation(c Conflict) {
	m.mu.Lock()
	m.violations = append(m.violations, c)
	m.mu.Unlock()

	m.logger.Warn("sod conflict detected",
		"rule", c.RuleCode,
		"enforcement", string(c.Enforcement),
		"object", c.ObjectID,
		"prior_agent", c.Prior.AgentCode,
		"prior_action", c.Prior.Action,
		"proposed_action", c.ProposedAction,
	)
}

// Violations returns every conflict detected so far, Warn included.
func (m *Matrix) Violations() []Conflict {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Conflict, len(m.violations))
	copy(out, m.violations)
	return out
}
