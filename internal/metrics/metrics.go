package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Materializer metrics

	MaterializerTickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nag",
		Name:      "materializer_tick_duration_seconds",
		Help:      "Time taken for one materializer tick.",
		Buckets:   prometheus.DefBuckets,
	})

	EventsMaterializedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nag",
		Name:      "events_materialized_total",
		Help:      "Total notification events newly inserted by the materializer.",
	})

	ChoresSkippedInvalidScheduleTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nag",
		Name:      "chores_skipped_invalid_schedule_total",
		Help:      "Total chores skipped by the materializer due to an unparseable schedule.",
	})

	// Dispatcher metrics

	DispatcherTickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nag",
		Name:      "dispatcher_tick_duration_seconds",
		Help:      "Time taken for one dispatcher tick.",
		Buckets:   prometheus.DefBuckets,
	})

	DeliveryAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nag",
		Name:      "delivery_attempts_total",
		Help:      "Total delivery attempts, by outcome.",
	}, []string{"channel", "outcome"})

	DeliveriesInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nag",
		Name:      "dispatcher_deliveries_in_flight",
		Help:      "Number of deliveries currently being attempted by the dispatcher.",
	})

	DeliveryParkedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nag",
		Name:      "deliveries_parked_total",
		Help:      "Total deliveries parked after exhausting retries or hitting a permanent failure.",
	}, []string{"channel"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nag",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nag",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		MaterializerTickDuration,
		EventsMaterializedTotal,
		ChoresSkippedInvalidScheduleTotal,
		DispatcherTickDuration,
		DeliveryAttemptsTotal,
		DeliveriesInFlight,
		DeliveryParkedTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
