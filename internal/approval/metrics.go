package approval

import "github.com/prometheus/client_golang/prometheus"

var (
	workflowOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      "workflows_total",
		Subsystem: "approval",
		Help:      "Finished approval workflows, labeled by terminal state.",
	}, []string{"state"})

	workflowsQueued = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:      "workflows_queued",
		Subsystem: "approval",
		Help:      "Signing requests waiting for the approval surface.",
	})
)

func init() {
	prometheus.MustRegister(workflowOutcomes)
	prometheus.MustRegister(workflowsQueued)
}
