// Package metrics holds the prometheus counters of the review workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	proposals   *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	direct      *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// New registers the counters with registry. A nil registry yields nil.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		return nil
	}
	factory := promauto.With(registry)
	m := &Metrics{}

	m.proposals = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "directory_proposals_total",
		Help: "Change-sets staged by staff, by entity and change type",
	}, []string{"entity", "change_type"})

	m.resolutions = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "directory_resolutions_total",
		Help: "Admin decisions applied, by entity, change type and decision",
	}, []string{"entity", "change_type", "decision"})

	m.direct = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "directory_direct_mutations_total",
		Help: "Admin mutations applied without staging",
	}, []string{"entity", "change_type"})

	m.cacheHits = factory.NewCounter(prometheus.CounterOpts{
		Name: "directory_list_cache_hits_total",
		Help: "List cache hits",
	})

	m.cacheMisses = factory.NewCounter(prometheus.CounterOpts{
		Name: "directory_list_cache_misses_total",
		Help: "List cache misses",
	})
	return m
}

func (m *Metrics) Proposed(entity, changeType string) {
	if m == nil {
		return
	}
	m.proposals.WithLabelValues(entity, changeType).Inc()
}

func (m *Metrics) Resolved(entity, changeType, decision string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(entity, changeType, decision).Inc()
}

func (m *Metrics) Direct(entity, changeType string) {
	if m == nil {
		return
	}
	m.direct.WithLabelValues(entity, changeType).Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}
