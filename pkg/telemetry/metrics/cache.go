package metrics

import (
	"mizan-hq/mizan/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics tracks the decision cache. It satisfies the cache
// package's Metrics interface so the cache reports directly into it.
//
// Metrics:
//   - mizan_engine_cache_hits_total
//   - mizan_engine_cache_misses_total
//   - mizan_engine_cache_evictions_total
//   - mizan_engine_cache_entries
type CacheMetrics struct {
	enabled bool

	hitsTotal      prometheus.Counter
	missesTotal    prometheus.Counter
	evictionsTotal prometheus.Counter
	entries        prometheus.Gauge
}

// NewCacheMetrics creates and registers cache metrics.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		enabled: cfg.Enabled,

		hitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cache_hits_total",
			Help:      "Total number of decision cache hits",
		}),

		missesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cache_misses_total",
			Help:      "Total number of decision cache misses",
		}),

		evictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cache_evictions_total",
			Help:      "Total number of expired decision cache entries removed",
		}),

		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cache_entries",
			Help:      "Current number of decision cache entries",
		}),
	}

	registry.MustRegister(cm.hitsTotal, cm.missesTotal, cm.evictionsTotal, cm.entries)
	return cm
}

// Hit records a cache hit.
func (cm *CacheMetrics) Hit() {
	if cm.enabled {
		cm.hitsTotal.Inc()
	}
}

// Miss records a cache miss.
func (cm *CacheMetrics) Miss() {
	if cm.enabled {
		cm.missesTotal.Inc()
	}
}

// Evict records n expired entries removed.
func (cm *CacheMetrics) Evict(n int) {
	if cm.enabled {
		cm.evictionsTotal.Add(float64(n))
	}
}

// SetEntries updates the current entry count.
func (cm *CacheMetrics) SetEntries(n int) {
	if cm.enabled {
		cm.entries.Set(float64(n))
	}
}
