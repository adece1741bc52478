package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classline_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "classline_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// MessagesSent counts persisted messages by conversation type.
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classline_messages_sent_total",
		Help: "Total number of messages persisted by conversation type",
	}, []string{"type"})

	// SendFailures counts rejected or failed sends by error code.
	SendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classline_send_failures_total",
		Help: "Total number of failed message sends by error code",
	}, []string{"code"})

	// UnreadIncrements counts unread-counter increments applied on send.
	UnreadIncrements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classline_unread_increments_total",
		Help: "Total number of per-participant unread counter increments",
	})

	// ActiveSubscriptions is the gauge of live change-feed subscriptions by kind.
	ActiveSubscriptions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "classline_active_subscriptions",
		Help: "Number of live snapshot subscriptions by kind",
	}, []string{"kind"})

	// SnapshotDeliveries counts snapshot deliveries by kind.
	SnapshotDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classline_snapshot_deliveries_total",
		Help: "Total number of snapshot deliveries by subscription kind",
	}, []string{"kind"})

	// WebSocketConnections is the gauge of active websocket connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classline_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classline_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}
