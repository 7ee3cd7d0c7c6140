package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhookEventsTotal,
		webhookApplyLatencyMs,
	)
}

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhook deliveries by provider and outcome (applied/duplicate/ignored/unresolvable/signature_rejected/malformed/error).",
		},
		[]string{"provider", "outcome"},
	)

	webhookApplyLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_apply_latency_ms",
			Help:    "End-to-end latency of applying a verified payment event, in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000},
		},
		[]string{"provider"},
	)
)

func IncWebhookEvent(provider, outcome string) {
	webhookEventsTotal.WithLabelValues(norm(provider), norm(outcome)).Inc()
}

func ObserveApplyLatency(provider string, ms float64) {
	webhookApplyLatencyMs.WithLabelValues(norm(provider)).Observe(ms)
}
