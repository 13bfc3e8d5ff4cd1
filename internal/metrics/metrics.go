package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Stats Metrics
var (
	StatsUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gacha_stats_updates_total",
			Help: "Total number of global counter updates by type",
		},
		[]string{"type"},
	)

	SpentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gacha_spent_amount_total",
			Help: "Sum of positive spend amounts recorded by this process",
		},
	)
)

// Simulation Metrics
var (
	DrawsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gacha_draws_total",
			Help: "Total number of simulated draws by outcome",
		},
		[]string{"outcome"},
	)

	StatsReportErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gacha_stats_report_errors_total",
			Help: "Spend or visitor reports that failed to reach the stats service",
		},
	)
)
