// Package observability provides metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinship_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// RoomProvisioning counts room descriptor writes by outcome
	// ("written", "error", "dropped", "abandoned", "reconciled").
	RoomProvisioning = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinship_room_provisioning_total",
		Help: "Chat room provisioning attempts by result",
	}, []string{"result"})

	// RoomQueueDepth is the number of pairs waiting for provisioning.
	RoomQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kinship_room_provisioning_queue_depth",
		Help: "Mutual-follow pairs waiting for room provisioning",
	})

	// FollowEdges counts follow graph mutations by operation and result.
	FollowEdges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinship_follow_edges_total",
		Help: "Follow graph mutations by operation and result",
	}, []string{"operation", "result"})

	// SessionRenewals counts access tokens minted from a refresh token.
	SessionRenewals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kinship_session_renewals_total",
		Help: "Access token renewals by result",
	}, []string{"result"})
)
