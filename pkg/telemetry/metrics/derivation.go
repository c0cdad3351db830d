package metrics

import (
	"time"

	"mizan-hq/mizan/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DerivationMetrics tracks scope derivation work.
//
// Metrics:
//   - mizan_engine_derivations_total: Derivations by tenant
//   - mizan_engine_derivation_duration_seconds: Derivation latency
//   - mizan_engine_rules_evaluated_total: Rules evaluated across derivations
//   - mizan_engine_rules_matched_total: Rules that fired
type DerivationMetrics struct {
	derivationsTotal   *prometheus.CounterVec
	derivationDuration prometheus.Histogram
	rulesEvaluated     prometheus.Counter
	rulesMatched       prometheus.Counter
}

// NewDerivationMetrics creates and registers derivation metrics.
func NewDerivationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DerivationMetrics {
	dm := &DerivationMetrics{
		derivationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "derivations_total",
				Help:      "Total number of scope derivations",
			},
			[]string{"tenant"},
		),

		derivationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "derivation_duration_seconds",
				Help:      "Duration of scope derivation in seconds",
				// Derivations are pure in-memory evaluation, well under 100ms
				Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
			},
		),

		rulesEvaluated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rules_evaluated_total",
				Help:      "Total number of rule condition evaluations",
			},
		),

		rulesMatched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rules_matched_total",
				Help:      "Total number of rules that fired",
			},
		),
	}

	registry.MustRegister(
		dm.derivationsTotal,
		dm.derivationDuration,
		dm.rulesEvaluated,
		dm.rulesMatched,
	)
	return dm
}

// Record records one completed derivation.
func (dm *DerivationMetrics) Record(tenant string, evaluated, matched int, duration time.Duration) {
	dm.derivationsTotal.WithLabelValues(tenant).Inc()
	dm.derivationDuration.Observe(duration.Seconds())
	dm.rulesEvaluated.Add(float64(evaluated))
	dm.rulesMatched.Add(float64(matched))
}
