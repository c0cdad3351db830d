package metrics

import (
	"mizan-hq/mizan/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// GateMetrics tracks the approval gate lifecycle.
//
// Metrics:
//   - mizan_engine_gates_opened_total
//   - mizan_engine_gate_transitions_total: Transitions by from/to state
type GateMetrics struct {
	openedTotal      prometheus.Counter
	transitionsTotal *prometheus.CounterVec
}

// NewGateMetrics creates and registers gate metrics.
func NewGateMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *GateMetrics {
	gm := &GateMetrics{
		openedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "gates_opened_total",
			Help:      "Total number of approval gates opened",
		}),

		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gate_transitions_total",
				Help:      "Total number of gate state transitions",
			},
			[]string{"from", "to"},
		),
	}

	registry.MustRegister(gm.openedTotal, gm.transitionsTotal)
	return gm
}

// Opened records one newly opened gate.
func (gm *GateMetrics) Opened() {
	gm.openedTotal.Inc()
}

// Transition records one state transition.
func (gm *GateMetrics) Transition(from, to string) {
	gm.transitionsTotal.WithLabelValues(from, to).Inc()
}
