package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (status server) ───────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nav_monitor",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nav_monitor",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// ── Outbound fetch metrics ─────────────────────────────────────────────

var (
	FetchAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nav_monitor",
		Subsystem: "fetch",
		Name:      "attempts_total",
		Help:      "Total HTTP fetch attempts, including retries.",
	}, []string{"method", "status"})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nav_monitor",
		Subsystem: "fetch",
		Name:      "duration_seconds",
		Help:      "Duration of a single fetch attempt in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method"})
)

// ── Pipeline run metrics ───────────────────────────────────────────────

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nav_monitor",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Total pipeline runs by outcome.",
	}, []string{"status"})

	LastRunSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nav_monitor",
		Subsystem: "pipeline",
		Name:      "last_success_timestamp",
		Help:      "Unix timestamp of the last successful pipeline run.",
	})

	Difference = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nav_monitor",
		Subsystem: "pipeline",
		Name:      "nav_spot_difference",
		Help:      "Latest NAV minus spot difference.",
	})
)

// ── Alert delivery metrics ─────────────────────────────────────────────

var (
	AlertsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nav_monitor",
		Subsystem: "alerts",
		Name:      "sent_total",
		Help:      "Total alerts successfully delivered.",
	})

	AlertsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nav_monitor",
		Subsystem: "alerts",
		Name:      "failed_total",
		Help:      "Total alert delivery failures.",
	})

	AlertsDeduplicatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nav_monitor",
		Subsystem: "alerts",
		Name:      "deduplicated_total",
		Help:      "Total alerts suppressed by deduplication.",
	})
)
