package metrics

import (
	"time"

	"mizan-hq/mizan/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the Prometheus registry and every metric subsystem.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	derivationMetrics *DerivationMetrics
	cacheMetrics      *CacheMetrics
	gateMetrics       *GateMetrics
	governorMetrics   *GovernorMetrics
}

// NewCollector creates a collector with its metric subsystems
// registered. A nil registry gets a fresh private one.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}

	return &Collector{
		config:            cfg,
		registry:          registry,
		derivationMetrics: NewDerivationMetrics(cfg, registry),
		cacheMetrics:      NewCacheMetrics(cfg, registry),
		gateMetrics:       NewGateMetrics(cfg, registry),
		governorMetrics:   NewGovernorMetrics(cfg, registry),
	}
}

// RecordDerivation records one scope derivation.
func (c *Collector) RecordDerivation(tenant string, evaluated, matched int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.derivationMetrics.Record(tenant, evaluated, matched, duration)
}

// ActionEvaluated records one governor verdict. Satisfies the
// governor's Metrics interface.
func (c *Collector) ActionEvaluated(agentCode, outcome string) {
	if !c.config.Enabled {
		return
	}
	c.governorMetrics.Record(agentCode, outcome)
}

// GateOpened records one newly opened approval gate. Satisfies the
// gate service's Metrics interface.
func (c *Collector) GateOpened() {
	if !c.config.Enabled {
		return
	}
	c.gateMetrics.Opened()
}

// GateTransition records one gate state transition.
func (c *Collector) GateTransition(from, to string) {
	if !c.config.Enabled {
		return
	}
	c.gateMetrics.Transition(from, to)
}

// Cache returns the cache metrics sink, which satisfies the decision
// cache's Metrics interface.
func (c *Collector) Cache() *CacheMetrics {
	return c.cacheMetrics
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
