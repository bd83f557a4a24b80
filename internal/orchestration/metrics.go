package orchestration

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsgraph",
			Subsystem: "scheduler",
			Name:      "operations_total",
			Help:      "Total number of resource operations by kind and result",
		},
		[]string{"kind", "result"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "opsgraph",
			Subsystem: "scheduler",
			Name:      "operation_duration_seconds",
			Help:      "Duration of resource operations in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"kind"},
	)

	retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opsgraph",
			Subsystem: "scheduler",
			Name:      "retries_total",
			Help:      "Total number of transient-failure retries by kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		operationsTotal,
		operationDuration,
		retriesTotal,
	)
}

func observeOperation(kind, result string, duration time.Duration) {
	operationsTotal.WithLabelValues(kind, result).Inc()
	if duration > 0 {
		operationDuration.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

func observeRetry(kind string) {
	retriesTotal.WithLabelValues(kind).Inc()
}
