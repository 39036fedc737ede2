package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlinks_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shortlinks_http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shortlinks_http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// LinksCreated counts successful reservations.
	LinksCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlinks_links_created_total",
			Help: "Short links created.",
		},
	)

	// LinksReused counts creates answered with an existing link for the same destination.
	LinksReused = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlinks_links_reused_total",
			Help: "Create requests answered with an existing link.",
		},
	)

	// ReservationCollisions counts candidates that were already taken.
	ReservationCollisions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlinks_reservation_collisions_total",
			Help: "Candidate identifiers rejected because they were already reserved.",
		},
	)

	// ReservationsExhausted counts creates that ran out of attempts.
	ReservationsExhausted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlinks_reservations_exhausted_total",
			Help: "Create requests that exhausted the collision retry budget.",
		},
	)
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			LinksCreated,
			LinksReused,
			ReservationCollisions,
			ReservationsExhausted,
		)
	})
}
