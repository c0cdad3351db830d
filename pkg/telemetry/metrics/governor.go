package metrics

import (
	"mizan-hq/mizan/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// GovernorMetrics tracks agent action verdicts.
//
// Metrics:
//   - mizan_engine_agent_actions_total: Verdicts by agent and outcome
type GovernorMetrics struct {
	actionsTotal *prometheus.CounterVec
}

// NewGovernorMetrics creates and registers governor metrics.
func NewGovernorMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *GovernorMetrics {
	gm := &GovernorMetrics{
		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "agent_actions_total",
				Help:      "Total number of agent action evaluations by outcome",
			},
			[]string{"agent", "outcome"},
		),
	}

	registry.MustRegister(gm.actionsTotal)
	return gm
}

// Record records one verdict.
func (gm *GovernorMetrics) Record(agentCode, outcome string) {
	gm.actionsTotal.WithLabelValues(agentCode, outcome).Inc()
}
