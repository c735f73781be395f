package messenger

import "github.com/prometheus/client_golang/prometheus"

var (
	pendingCalls = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:      "pending_calls",
		Subsystem: "messenger",
		Help:      "Outstanding cross-context calls, labeled by calling context.",
	}, []string{"context"})

	handledCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "handled_calls_total",
		Subsystem: "messenger",
		Help:      "Calls served, labeled by method and wire error code (empty on success).",
	}, []string{"method", "code"})

	droppedBroadcasts = prometheus.NewCounter(prometheus.CounterOpts{
		Name:      "dropped_broadcasts_total",
		Subsystem: "messenger",
		Help:      "Broadcasts not delivered because a receiver was not keeping up.",
	})
)

func init() {
	prometheus.MustRegister(pendingCalls)
	prometheus.MustRegister(handledCalls)
	prometheus.MustRegister(droppedBroadcasts)
}
