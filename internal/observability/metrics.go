package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce          sync.Once
	judgingRequestsTotal  *prometheus.CounterVec
	judgingLatencySeconds *prometheus.HistogramVec
	judgingErrorsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used for judging observability.
func RegisterMetrics() {
	registerOnce.Do(func() {
		judgingRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "judging_requests_total",
			Help: "Total number of judging API requests served.",
		}, []string{"method", "route", "status"})

		judgingLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "judging_latency_seconds",
			Help:    "Latency distribution for judging API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		judgingErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "judging_errors_total",
			Help: "Total number of error responses returned by judging endpoints.",
		}, []string{"method", "route", "status"})

		prometheus.MustRegister(judgingRequestsTotal, judgingLatencySeconds, judgingErrorsTotal)
	})
}

// JudgingRequests exposes the counter for judging requests.
func JudgingRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return judgingRequestsTotal
}

// JudgingLatency exposes the latency histogram for judging requests.
func JudgingLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return judgingLatencySeconds
}

// JudgingErrors exposes the counter for judging error responses.
func JudgingErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return judgingErrorsTotal
}

// MetricsHandler exposes the Prometheus scrape endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}
