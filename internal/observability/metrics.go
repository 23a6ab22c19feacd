package observability

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Security metrics
	ActionTokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "action_tokens_issued_total",
			Help: "Activation and password reset tokens minted",
		},
		[]string{"purpose"},
	)

	ActionTokenVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "action_token_verifications_total",
			Help: "Action token verifications by outcome",
		},
		[]string{"purpose", "result"},
	)

	CSRFFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csrf_failures_total",
			Help: "Requests rejected by the CSRF double-submit check",
		},
		[]string{"reason"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"result"},
	)

	// Messaging metrics
	EmailsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_published_total",
			Help: "Emails handed to the mail queue",
		},
		[]string{"template", "status"},
	)

	EmailsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_delivered_total",
			Help: "Emails taken off the mail queue by the worker",
		},
		[]string{"template", "status"},
	)

	// Database metrics
	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_in_use",
			Help: "Number of database connections currently in use",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordDBStats copies pool statistics into the connection gauges
func RecordDBStats(stats sql.DBStats) {
	DBConnectionsOpen.Set(float64(stats.OpenConnections))
	DBConnectionsInUse.Set(float64(stats.InUse))
	DBConnectionsIdle.Set(float64(stats.Idle))
}
