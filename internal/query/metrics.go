package query

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	dedups        prometheus.Counter
	fetches       *prometheus.CounterVec
	invalidations prometheus.Counter
	evictions     prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "foundry", Subsystem: "query_cache", Name: "hits_total",
			Help: "Reads served from a fresh cache entry.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "foundry", Subsystem: "query_cache", Name: "misses_total",
			Help: "Reads that started a fetch.",
		}),
		dedups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "foundry", Subsystem: "query_cache", Name: "dedup_total",
			Help: "Reads that joined an in-flight fetch.",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foundry", Subsystem: "query_cache", Name: "fetches_total",
			Help: "Settled fetches by result.",
		}, []string{"result"}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "foundry", Subsystem: "query_cache", Name: "invalidated_entries_total",
			Help: "Entries marked stale by invalidation.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "foundry", Subsystem: "query_cache", Name: "evicted_entries_total",
			Help: "Entries removed from the cache.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.hits, m.misses, m.dedups, m.fetches, m.invalidations, m.evictions)
	}
	return m
}

func (m *Metrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) dedup() {
	if m != nil {
		m.dedups.Inc()
	}
}

func (m *Metrics) fetched(result string) {
	if m != nil {
		m.fetches.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) invalidated(n int) {
	if m != nil {
		m.invalidations.Add(float64(n))
	}
}

func (m *Metrics) evicted(n int) {
	if m != nil {
		m.evictions.Add(float64(n))
	}
}
