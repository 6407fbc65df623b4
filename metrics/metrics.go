package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DetectionRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kunena_discord_detection_runs_total",
		Help: "Detection passes, by trigger (render, route, schedule, cli).",
	}, []string{"trigger"})

	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kunena_discord_notifications_total",
		Help: "Posts dispatched, by outcome.",
	}, []string{"result"})

	WebhookRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kunena_discord_webhook_requests_total",
		Help: "Webhook POSTs, by HTTP status (or \"error\" when no response arrived).",
	}, []string{"status"})

	WebhookRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kunena_discord_webhook_request_duration_seconds",
		Help:    "Webhook POST latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})

	DedupErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kunena_discord_dedup_errors_total",
		Help: "Processed-set failures, by operation.",
	}, []string{"operation"})
)

// Notification outcomes.
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// MustRegister registers the package metrics on registerer. Registering on the
// same registry twice is a no-op; any other failure panics.
func MustRegister(registerer prometheus.Registerer) {
	for _, c := range []prometheus.Collector{
		DetectionRunsTotal,
		NotificationsTotal,
		WebhookRequestsTotal,
		WebhookRequestDuration,
		DedupErrorsTotal,
	} {
		var are prometheus.AlreadyRegisteredError
		if err := registerer.Register(c); err != nil && !errors.As(err, &are) {
			panic(err)
		}
	}
}

// Handler serves the gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
