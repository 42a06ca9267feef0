package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRateLimitExceededTotal returns a counter of login requests rejected by the gate.
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected login requests due to rate limiting",
	})
}

// NewCacheHitsTotal returns a per-family counter of cache hits.
func NewCacheHitsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of cache hits",
	}, []string{"family"})
}

// NewCacheMissesTotal returns a per-family counter of cache misses.
func NewCacheMissesTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of cache misses",
	}, []string{"family"})
}

// NewAssignmentConflictsTotal returns a counter of assignment attempts
// rejected by an invariant (already assigned, wrong state).
func NewAssignmentConflictsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignment_conflicts_total",
		Help: "Total number of assignment attempts rejected due to conflicts",
	})
}
