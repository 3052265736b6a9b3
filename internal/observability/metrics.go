// Package observability holds prometheus collectors and the otel tracer provider.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// ContentCreated counts posts, comments and replies written.
	ContentCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_content_created_total",
		Help: "Content nodes created by kind",
	}, []string{"kind"})

	// ReactionOps counts ledger operations by outcome.
	ReactionOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_reaction_operations_total",
		Help: "Reaction ledger operations by action, polarity, target kind and outcome",
	}, []string{"action", "polarity", "kind", "outcome"})

	// CascadeNodesDeleted counts rows removed by cascades, per level.
	CascadeNodesDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_cascade_nodes_deleted_total",
		Help: "Rows removed by cascading deletes by level",
	}, []string{"root", "level"})

	// CascadeDuration records how long a cascade took, retries included.
	CascadeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agora_cascade_duration_seconds",
		Help:    "Cascading delete duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"root"})

	// CascadeRetries counts retried cascade attempts after transient store errors.
	CascadeRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_cascade_retries_total",
		Help: "Cascade attempts retried after a transient store error",
	}, []string{"root"})

	// CounterDrift counts denormalized counter corrections made by reconciliation.
	CounterDrift = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_counter_drift_total",
		Help: "Rows whose denormalized counter was corrected by reconciliation",
	}, []string{"table", "column"})

	// WebSocketConnections is the number of live event stream connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agora_websocket_connections",
		Help: "Active event stream WebSocket connections",
	})

	// WebSocketDrops counts events dropped for slow clients.
	WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_websocket_drops_total",
		Help: "Events dropped due to backpressure",
	}, []string{"reason"})
)
