// Package metrics has the prometheus collectors of the agent. They are
// registered once to the default registry when the package is loaded.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Results of the inbound message handling.
const (
	ResultHandled   = "handled"
	ResultDuplicate = "duplicate"
	ResultUnknown   = "unknown"
	ResultViolation = "violation"
	ResultFailed    = "failed"
)

var (
	InboundMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fconv_inbound_messages_total",
		Help: "Total number of inbound messages, labeled by protocol family and result",
	}, []string{"family", "result"})

	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fconv_conversation_transitions_total",
		Help: "Total number of conversation state changes, labeled by category, type and status",
	}, []string{"category", "type", "status"})

	ConnectionsActivated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fconv_connections_activated_total",
		Help: "Total number of connections moved from Pending to Active",
	})

	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fconv_active_connections",
		Help: "Number of active connections seen by the last poll round",
	})

	PollLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fconv_poll_round_latency_seconds",
		Help:    "Latency of the inbox poll rounds over all connections in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

// Inbound counts the handled inbound message.
func Inbound(family, result string) {
	InboundMessages.WithLabelValues(family, result).Inc()
}

// Transition counts the conversation state change.
func Transition(category, typ, status string) {
	Transitions.WithLabelValues(category, typ, status).Inc()
}

// ObservePoll records the duration of the poll round started at start.
func ObservePoll(start time.Time) {
	PollLatency.Observe(time.Since(start).Seconds())
}

// Handler returns the HTTP handler of the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
