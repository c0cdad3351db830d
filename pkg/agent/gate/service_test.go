package gate

import (
	"context"
	"errors"
	"testing"
	"time"
)

var testStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testSpec() Spec {
	return Spec{
		AgentCode:                 "EVIDENCE_COLLECTOR",
		Action:                    "CollectEvidence",
		ObjectID:                  "EV-1",
		Confidence:                62,
		ApproverRole:              "ComplianceManager",
		EscalationRole:            "CISO",
		BypassConfidenceThreshold: 85,
		SLA:                       24 * time.Hour,
		AutoReject:                72 * time.Hour,
	}
}

// newTestService returns a service over a memory store with a steppable clock.
func newTestService(t *testing.T, authority Authority) (*Service, *time.Time) {
	t.Helper()
	clock := testStart
	s := NewService(NewMemoryStore(), authority, nil, nil)
	s.SetClock(func() time.Time { return clock })
	return s, &clock
}

func TestOpen(t *testing.T) {
	s, _ := newTestService(t, nil)

	g, err := s.Open(context.Background(), testSpec())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if g.State != StatePending {
		t.Errorf("state = %s, want Pending", g.State)
	}
	if !g.SlaDueAt.Equal(testStart.Add(24 * time.Hour)) {
		t.Errorf("SlaDueAt = %s", g.SlaDueAt)
	}
	if !g.AutoRejectAt.Equal(testStart.Add(72 * time.Hour)) {
		t.Errorf("AutoRejectAt = %s", g.AutoRejectAt)
	}

	got, err := s.Get(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != g.ID || got.Action != "CollectEvidence" {
		t.Errorf("persisted gate = %+v", got)
	}
}

func TestDecide(t *testing.T) {
	s, _ := newTestService(t, nil)
	g, _ := s.Open(context.Background(), testSpec())

	decided, err := s.Decide(context.Background(), g.ID, "ComplianceManager", DecisionApprove)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.State != StateApproved || decided.DecidedBy != "ComplianceManager" {
		t.Errorf("gate = %+v", decided)
	}
	if decided.DecidedAt.IsZero() {
		t.Error("DecidedAt not stamped")
	}
}

func TestDecide_TerminalGateRejectsSecondDecision(t *testing.T) {
	s, _ := newTestService(t, nil)
	g, _ := s.Open(context.Background(), testSpec())
	if _, err := s.Decide(context.Background(), g.ID, "ComplianceManager", DecisionApprove); err != nil {
		t.Fatalf("first decision: %v", err)
	}

	_, err := s.Decide(context.Background(), g.ID, "ComplianceManager", DecisionReject)
	var terr *InvalidTransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
	if terr.From != StateApproved {
		t.Errorf("From = %s, want Approved", terr.From)
	}

	// The stored gate is untouched by the failed attempt.
	got, _ := s.Get(context.Background(), g.ID)
	if got.State != StateApproved {
		t.Errorf("state = %s, want Approved unchanged", got.State)
	}
}

func TestDecide_Authorization(t *testing.T) {
	s, _ := newTestService(t, nil)
	g, _ := s.Open(context.Background(), testSpec())

	for _, role := range []string{"", "Intern"} {
		if _, err := s.Decide(context.Background(), g.ID, role, DecisionApprove); !errors.Is(err, ErrNotAuthorized) {
			t.Errorf("role %q: err = %v, want ErrNotAuthorized", role, err)
		}
	}

	got, _ := s.Get(context.Background(), g.ID)
	if got.State != StatePending {
		t.Errorf("unauthorized attempts changed state to %s", got.State)
	}
}

// roleAuthority grants decide authority to an explicit role set.
type roleAuthority map[string]bool

func (a roleAuthority) CanDecide(role, approverRole string) (bool, error) {
	return a[role], nil
}

func TestDecide_DirectoryAuthority(t *testing.T) {
	s, _ := newTestService(t, roleAuthority{"CISO": true})
	g, _ := s.Open(context.Background(), testSpec())

	// The directory says no for the literal approver role and yes for an
	// inheriting role; the service follows the directory, not string equality.
	if _, err := s.Decide(context.Background(), g.ID, "ComplianceManager", DecisionApprove); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("err = %v, want ErrNotAuthorized", err)
	}
	if _, err := s.Decide(context.Background(), g.ID, "CISO", DecisionReject); err != nil {
		t.Errorf("inheriting role rejected: %v", err)
	}
}

func TestSweep_EscalationWindow(t *testing.T) {
	s, clock := newTestService(t, nil)
	g, _ := s.Open(context.Background(), testSpec())

	// Inside the SLA nothing moves.
	*clock = testStart.Add(23 * time.Hour)
	swept, err := s.Sweep(context.Background())
	if err != nil || len(swept) != 0 {
		t.Fatalf("sweep inside SLA = %v gates, err %v", len(swept), err)
	}

	// Past the 24h SLA the gate escalates and stays actionable.
	*clock = testStart.Add(25 * time.Hour)
	swept, err = s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(swept) != 1 || swept[0].State != StateEscalated {
		t.Fatalf("swept = %+v, want one Escalated gate", swept)
	}
	if swept[0].EscalatedAt.IsZero() {
		t.Error("EscalatedAt not stamped")
	}

	// An escalated gate can still be decided before auto-reject.
	decided, err := s.Decide(context.Background(), g.ID, "ComplianceManager", DecisionApprove)
	if err != nil {
		t.Fatalf("Decide on escalated gate: %v", err)
	}
	if decided.State != StateApproved {
		t.Errorf("state = %s, want Approved", decided.State)
	}
}

func TestSweep_AutoReject(t *testing.T) {
	s, clock := newTestService(t, nil)
	g, _ := s.Open(context.Background(), testSpec())

	*clock = testStart.Add(73 * time.Hour)
	swept, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(swept) != 1 || swept[0].State != StateAutoRejected {
		t.Fatalf("swept = %+v, want one AutoRejected gate", swept)
	}

	// A decision after the window reports expiry, not a generic transition
	// failure.
	_, err = s.Decide(context.Background(), g.ID, "ComplianceManager", DecisionApprove)
	var eerr *ApprovalExpiredError
	if !errors.As(err, &eerr) {
		t.Errorf("err = %v, want ApprovalExpiredError", err)
	}
}

func TestDecide_ExpiredBeforeSweep(t *testing.T) {
	s, clock := newTestService(t, nil)
	g, _ := s.Open(context.Background(), testSpec())

	// The deadline passed but no sweep has run; the decision still expires.
	*clock = testStart.Add(80 * time.Hour)
	_, err := s.Decide(context.Background(), g.ID, "ComplianceManager", DecisionApprove)
	var eerr *ApprovalExpiredError
	if !errors.As(err, &eerr) {
		t.Errorf("err = %v, want ApprovalExpiredError", err)
	}
}

func TestSweep_Idempotent(t *testing.T) {
	s, clock := newTestService(t, nil)
	s.Open(context.Background(), testSpec())
	s.Open(context.Background(), testSpec())

	*clock = testStart.Add(25 * time.Hour)
	first, err := s.Sweep(context.Background())
	if err != nil || len(first) != 2 {
		t.Fatalf("first sweep = %d gates, err %v", len(first), err)
	}
	second, err := s.Sweep(context.Background())
	if err != nil || len(second) != 0 {
		t.Errorf("second sweep = %d gates, err %v, want no-op", len(second), err)
	}

	*clock = testStart.Add(73 * time.Hour)
	third, err := s.Sweep(context.Background())
	if err != nil || len(third) != 2 {
		t.Fatalf("third sweep = %d gates, err %v", len(third), err)
	}
	for _, g := range third {
		if g.State != StateAutoRejected {
			t.Errorf("gate %s state = %s, want AutoRejected", g.ID, g.State)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrGateNotFound) {
		t.Errorf("Get missing = %v, want ErrGateNotFound", err)
	}
	if err := store.Update(ctx, &Gate{ID: "missing"}); !errors.Is(err, ErrGateNotFound) {
		t.Errorf("Update missing = %v, want ErrGateNotFound", err)
	}

	older := New(testSpec(), testStart)
	newer := New(testSpec(), testStart.Add(time.Hour))
	decided := New(testSpec(), testStart)
	decided.State = StateRejected
	for _, g := range []*Gate{newer, decided, older} {
		if err := store.Create(ctx, g); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	actionable, err := store.ListActionable(ctx)
	if err != nil {
		t.Fatalf("ListActionable: %v", err)
	}
	if len(actionable) != 2 {
		t.Fatalf("actionable = %d, want 2", len(actionable))
	}
	if actionable[0].ID != older.ID || actionable[1].ID != newer.ID {
		t.Error("actionable gates not ordered oldest first")
	}

	// Stored gates are isolated from caller mutation.
	got, _ := store.Get(ctx, older.ID)
	got.State = StateApproved
	again, _ := store.Get(ctx, older.ID)
	if again.State != StatePending {
		t.Error("store handed out a shared gate pointer")
	}
}
