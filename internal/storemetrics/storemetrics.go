// Package storemetrics instruments internal/store and internal/
// publishqueue with Prometheus metrics: one histogram per
// latency-sensitive operation, counters for discrete events, and a
// CounterVec keyed by Store name for per-environment breakdowns.
package storemetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks Store/PublishQueue performance.
type Metrics struct {
	PublishLatency prometheus.Histogram
	ReadLatency    prometheus.Histogram
	NotifyLatency  prometheus.Histogram
	GCLatency      prometheus.Histogram

	RecordsGCed      prometheus.Counter
	OptimisticRebase prometheus.Counter
	Conflicts        prometheus.Counter
	CacheHits        *prometheus.CounterVec
}

// New initializes metrics. Callers that want them exported must call
// MustRegister (or register the returned Metrics' fields themselves).
func New() *Metrics {
	return &Metrics{
		PublishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "normcache_publish_latency_seconds",
			Help:    "Latency of PublishQueue.Run commits.",
			Buckets: prometheus.ExponentialBuckets(0.000001, 2, 20),
		}),
		ReadLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "normcache_read_latency_seconds",
			Help:    "Latency of Store.Lookup reads.",
			Buckets: prometheus.ExponentialBuckets(0.000001, 2, 20),
		}),
		NotifyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "normcache_notify_latency_seconds",
			Help:    "Latency of subscription re-read and diff in Store.notify.",
			Buckets: prometheus.ExponentialBuckets(0.000001, 2, 20),
		}),
		GCLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "normcache_gc_latency_seconds",
			Help:    "Latency of a mark-sweep GC pass.",
			Buckets: prometheus.ExponentialBuckets(0.000001, 2, 20),
		}),
		RecordsGCed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "normcache_records_gced_total",
			Help: "Records reclaimed by GC.",
		}),
		OptimisticRebase: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "normcache_optimistic_rebase_total",
			Help: "PublishQueue optimistic overlay rebuilds.",
		}),
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "normcache_shape_conflicts_total",
			Help: "Normalize calls aborted by a ShapeError.",
		}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "normcache_store_hits_total",
			Help: "Store.Lookup outcomes, by store name and hit/miss.",
		}, []string{"store", "outcome"}),
	}
}

// MustRegister registers every metric with reg.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.PublishLatency, m.ReadLatency, m.NotifyLatency, m.GCLatency,
		m.RecordsGCed, m.OptimisticRebase, m.Conflicts, m.CacheHits,
	)
}
