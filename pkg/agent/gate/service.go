package gate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Authority answers whether a role may decide gates owned by an
// approver role. Satisfied by directory.Directory.
type Authority interface {
	CanDecide(role, approverRole string) (bool, error)
}

// Metrics receives gate lifecycle events. Implementations must be
// safe for concurrent use.
type Metrics interface {
	GateOpened()
	GateTransition(from, to string)
}

// Service owns gate state transitions. All writes to the store go
// through a single mutex so manual decisions and sweeps never race.
type Service struct {
	store     Store
	authority Authority
	logger    *slog.Logger
	metrics   Metrics
	now       func() time.Time

	mu sync.Mutex
}

// NewService creates a gate service. authority and metrics may be nil.
func NewService(store Store, authority Authority, logger *slog.Logger, metrics Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		authority: authority,
		logger:    logger.With("component", "agent.gate"),
		metrics:   metrics,
		now:       time.Now,
	}
}

// SetClock overrides the service clock. Intended for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Open creates a gate in Pending state and persists it.
func (s *Service) Open(ctx context.Context, spec Spec) (*Gate, error) {
	g := New(spec, s.now().UTC())
	if err := s.store.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("open gate: %w", err)
	}
	if s.metrics != nil {
		s.metrics.GateOpened()
	}
	s.logger.Info("approval gate opened",
		"gate_id", g.ID,
		"agent", g.AgentCode,
		"action", g.Action,
		"sla_due_at", g.SlaDueAt,
	)
	return g, nil
}

// Get returns the gate with the given ID.
func (s *Service) Get(ctx context.Context, gateID string) (*Gate, error) {
	return s.store.Get(ctx, gateID)
}

// Decide records an approve or reject decision on an actionable gate.
// The deciding role must hold, or inherit through the directory, the
// gate's approver role.
func (s *Service) Decide(ctx context.Context, gateID string, role string, decision Decision) (*Gate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.store.Get(ctx, gateID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(role, g); err != nil {
		return nil, err
	}

	from := g.State
	if err := g.decide(decision, role, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("persist decision: %w", err)
	}
	if s.metrics != nil {
		s.metrics.GateTransition(string(from), string(g.State))
	}
	s.logger.Info("approval gate decided",
		"gate_id", g.ID,
		"decision", string(decision),
		"decided_by", role,
	)
	return g, nil
}

func (s *Service) authorize(role string, g *Gate) error {
	if role == "" {
		return fmt.Errorf("decide gate %s: %w", g.ID, ErrNotAuthorized)
	}
	if s.authority == nil {
		if role == g.ApproverRole {
			return nil
		}
		return fmt.Errorf("role %q cannot decide gate %s: %w", role, g.ID, ErrNotAuthorized)
	}
	ok, err := s.authority.CanDecide(role, g.ApproverRole)
	if err != nil {
		return fmt.Errorf("authorize role %q: %w", role, err)
	}
	if !ok {
		return fmt.Errorf("role %q cannot decide gate %s: %w", role, g.ID, ErrNotAuthorized)
	}
	return nil
}

// Sweep advances every actionable gate whose deadline has passed:
// past-SLA Pending gates escalate, past-auto-reject gates close as
// AutoRejected. A failure on one gate does not stop the sweep. Sweep
// is idempotent; re-running it over the same gates changes nothing.
func (s *Service) Sweep(ctx context.Context) ([]*Gate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	gates, err := s.store.ListActionable(ctx)
	if err != nil {
		return nil, fmt.Errorf("sweep gates: %w", err)
	}

	now := s.now().UTC()
	var swept []*Gate
	var firstErr error
	for _, g := range gates {
		from := g.State
		if !g.sweep(now) {
			continue
		}
		if err := s.store.Update(ctx, g); err != nil {
			s.logger.Error("failed to persist swept gate", "gate_id", g.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if s.metrics != nil {
			s.metrics.GateTransition(string(from), string(g.State))
		}
		s.logger.Info("approval gate swept",
			"gate_id", g.ID,
			"from", string(from),
			"to", string(g.State),
		)
		swept = append(swept, g)
	}
	return swept, firstErr
}
