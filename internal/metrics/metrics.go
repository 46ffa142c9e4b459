// Package metrics exposes the collection core's running counters as
// Prometheus collectors, so an external scraper (itself out of scope)
// has something to read. It never participates in the in-memory
// statistics() contract that internal/collect.Stats implements;
// that stays purely language-level state.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles all metrics the collection core publishes.
type Registry struct {
	CollectTotal    *prometheus.CounterVec
	CollectDuration *prometheus.HistogramVec
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	PoolInFlight    *prometheus.GaugeVec
	WatchSessions   prometheus.Gauge
}

// New builds and registers every collector against reg. Callers
// typically pass prometheus.NewRegistry() in tests and
// prometheus.DefaultRegisterer in the running service.
func New(reg prometheus.Registerer) *Registry {
	m := &Registry{
		CollectTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetctl_collect_total",
			Help: "Total collect() calls by operation and outcome.",
		}, []string{"operation", "success"}),
		CollectDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fleetctl_collect_duration_seconds",
			Help:    "collect() execution time by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetctl_cache_hits_total",
			Help: "Cache hits across all operations.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetctl_cache_misses_total",
			Help: "Cache misses across all operations.",
		}),
		PoolInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fleetctl_ssh_inflight",
			Help: "In-flight SSH executions per host.",
		}, []string{"host"}),
		WatchSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleetctl_watch_sessions",
			Help: "Active file-watch sessions.",
		}),
	}

	reg.MustRegister(m.CollectTotal, m.CollectDuration, m.CacheHits, m.CacheMisses, m.PoolInFlight, m.WatchSessions)
	return m
}
