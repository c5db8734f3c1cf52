package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CapabilityDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docclient_capability_duration_seconds",
			Help:    "Capability call duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"capability"},
	)

	CapabilityTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docclient_capability_total",
			Help: "Total capability calls by outcome",
		},
		[]string{"capability", "status"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "docclient_breaker_state",
			Help: "Circuit breaker state per capability (0 closed, 1 half-open, 2 open)",
		},
		[]string{"capability"},
	)

	ValidationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docclient_validation_failures_total",
			Help: "Submissions rejected locally by precondition checks",
		},
		[]string{"mode"},
	)

	BusyRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docclient_busy_rejections_total",
			Help: "Submissions rejected because one was already outstanding",
		},
	)

	StaleCompletions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docclient_stale_completions_total",
			Help: "Completions dropped because the session moved on",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "docclient_active_sessions",
			Help: "Sessions held by the local server",
		},
	)

	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docclient_exports_total",
			Help: "Artifacts exported",
		},
		[]string{"artifact"},
	)
)

func Init() {
	prometheus.MustRegister(CapabilityDuration)
	prometheus.MustRegister(CapabilityTotal)
	prometheus.MustRegister(BreakerState)
	prometheus.MustRegister(ValidationFailures)
	prometheus.MustRegister(BusyRejections)
	prometheus.MustRegister(StaleCompletions)
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(ExportsTotal)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
