package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mizan-hq/mizan/pkg/config"
)

func enabledConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:   true,
		Path:      "/metrics",
		Namespace: "mizan",
		Subsystem: "engine",
	}
}

func TestCollector_Derivation(t *testing.T) {
	c := NewCollector(enabledConfig(), prometheus.NewRegistry())

	c.RecordDerivation("acme", 4, 2, 3*time.Millisecond)
	c.RecordDerivation("acme", 4, 1, time.Millisecond)

	if got := testutil.ToFloat64(c.derivationMetrics.derivationsTotal.WithLabelValues("acme")); got != 2 {
		t.Errorf("derivations_total{tenant=acme} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.derivationMetrics.rulesEvaluated); got != 8 {
		t.Errorf("rules_evaluated_total = %v, want 8", got)
	}
	if got := testutil.ToFloat64(c.derivationMetrics.rulesMatched); got != 3 {
		t.Errorf("rules_matched_total = %v, want 3", got)
	}
}

func TestCollector_GatesAndGovernor(t *testing.T) {
	c := NewCollector(enabledConfig(), prometheus.NewRegistry())

	c.GateOpened()
	c.GateTransition("Pending", "Escalated")
	c.GateTransition("Pending", "Escalated")
	c.ActionEvaluated("EVIDENCE_COLLECTOR", "approved")

	if got := testutil.ToFloat64(c.gateMetrics.openedTotal); got != 1 {
		t.Errorf("gates_opened_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.gateMetrics.transitionsTotal.WithLabelValues("Pending", "Escalated")); got != 2 {
		t.Errorf("gate_transitions_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.governorMetrics.actionsTotal.WithLabelValues("EVIDENCE_COLLECTOR", "approved")); got != 1 {
		t.Errorf("agent_actions_total = %v, want 1", got)
	}
}

func TestCollector_CacheMetrics(t *testing.T) {
	c := NewCollector(enabledConfig(), prometheus.NewRegistry())
	cm := c.Cache()

	cm.Hit()
	cm.Hit()
	cm.Miss()
	cm.Evict(3)
	cm.SetEntries(7)

	if got := testutil.ToFloat64(cm.hitsTotal); got != 2 {
		t.Errorf("cache_hits_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(cm.missesTotal); got != 1 {
		t.Errorf("cache_misses_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(cm.evictionsTotal); got != 3 {
		t.Errorf("cache_evictions_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(cm.entries); got != 7 {
		t.Errorf("cache_entries = %v, want 7", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := enabledConfig()
	cfg.Enabled = false
	c := NewCollector(cfg, prometheus.NewRegistry())

	c.RecordDerivation("acme", 4, 2, time.Millisecond)
	c.GateOpened()
	c.ActionEvaluated("EVIDENCE_COLLECTOR", "approved")
	c.Cache().Hit()

	if got := testutil.ToFloat64(c.gateMetrics.openedTotal); got != 0 {
		t.Errorf("disabled collector recorded gates_opened_total = %v", got)
	}
	if got := testutil.ToFloat64(c.cacheMetrics.hitsTotal); got != 0 {
		t.Errorf("disabled collector recorded cache_hits_total = %v", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(enabledConfig(), prometheus.NewRegistry())
	c.GateOpened()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mizan_engine_gates_opened_total") {
		t.Errorf("exposition missing namespaced metric:\n%s", rec.Body.String())
	}
}
