// Package telemetry holds the Prometheus collectors the service exposes
// on /metrics, grouped by subsystem the way the rest of the example
// pack registers its domain-specific gauges and counters.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

var MessagesPostedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "queuebroker",
		Subsystem: "messages",
		Name:      "posted_total",
		Help:      "Total number of messages posted, by queue.",
	},
	[]string{"project", "queue"},
)

var MessagesDeletedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "queuebroker",
		Subsystem: "messages",
		Name:      "deleted_total",
		Help:      "Total number of messages deleted, by queue.",
	},
	[]string{"project", "queue"},
)

var MessagesExpiredTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "queuebroker",
		Subsystem: "messages",
		Name:      "expired_total",
		Help:      "Total number of messages reaped by the expiry worker, by queue.",
	},
	[]string{"project", "queue"},
)

var ClaimsCreatedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "queuebroker",
		Subsystem: "claims",
		Name:      "created_total",
		Help:      "Total number of claims created, by queue.",
	},
	[]string{"project", "queue"},
)

var ClaimsExpiredTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "queuebroker",
		Subsystem: "claims",
		Name:      "expired_total",
		Help:      "Total number of claims reaped by the expiry worker, by queue.",
	},
	[]string{"project", "queue"},
)

var PartitionSelectionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "queuebroker",
		Subsystem: "partitions",
		Name:      "selections_total",
		Help:      "Total number of proxy partition selections, by partition.",
	},
	[]string{"partition"},
)

var StorageOperationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "queuebroker",
		Subsystem: "storage",
		Name:      "operation_duration_seconds",
		Help:      "Storage driver call duration in seconds, by capability and operation.",
		Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"capability", "operation"},
)

var QueueDepth = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "queuebroker",
		Subsystem: "queues",
		Name:      "depth",
		Help:      "Free and claimed message counts observed by the stats worker, by queue and state.",
	},
	[]string{"project", "queue", "state"},
)

// All returns every collector for registration against a
// prometheus.Registerer.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		MessagesPostedTotal,
		MessagesDeletedTotal,
		MessagesExpiredTotal,
		ClaimsCreatedTotal,
		ClaimsExpiredTotal,
		PartitionSelectionsTotal,
		StorageOperationDuration,
		QueueDepth,
	}
}
