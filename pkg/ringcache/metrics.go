package ringcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCurrentSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ringcache",
		Name:      "current_size",
		Help:      "Current ring capacity.",
	})

	metricLastPeriodAvgMins = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ringcache",
		Name:      "last_period_avg_residency_minutes",
		Help:      "Most recently computed mean residency, in minutes.",
	})

	metricRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ringcache",
		Name:      "requests_total",
		Help:      "Total Set calls, inserts and updates alike.",
	})

	metricItemsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ringcache",
		Name:      "items_total",
		Help:      "Total new-id insertions.",
	})

	metricEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ringcache",
		Name:      "evictions_total",
		Help:      "Total records evicted, across overwrite, shrink, and full drain.",
	})

	metricSinkFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ringcache",
		Name:      "sink_failures_total",
		Help:      "Total eviction sink panics/failures, swallowed per spec's at-most-once delivery policy.",
	})

	metricStoreFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ringcache",
		Name:      "store_failures_total",
		Help:      "Total shared-store operations that returned an error.",
	})

	metricResizesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ringcache",
		Name:      "resizes_total",
		Help:      "Total resize decisions applied by the capacity controller.",
	})

	metricDispatchPoolDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ringcache",
		Name:      "dispatch_pool_depth",
		Help:      "Current number of ejection tasks queued in the parallel dispatch pool.",
	})
)
