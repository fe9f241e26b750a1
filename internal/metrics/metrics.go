package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// WorkflowTransitions counts lifecycle transitions by entity, action and outcome
	// (ok, validation, unauthorized, conflict, error).
	WorkflowTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_transitions_total",
			Help: "Total number of asset workflow transitions by outcome",
		},
		[]string{"entity", "action", "outcome"},
	)

	// AssetsRegistered counts assets registered into the pool.
	AssetsRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assets_registered_total",
			Help: "Total number of assets registered",
		},
	)

	// NotificationsQueued counts notification messages handed to the dispatcher.
	NotificationsQueued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_queued_total",
			Help: "Total number of notification messages queued",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, WorkflowTransitions, AssetsRegistered, NotificationsQueued)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /assets/123/retire -> /assets/{id}/retire.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordTransition records one workflow transition outcome.
func RecordTransition(entity, action, outcome string) {
	WorkflowTransitions.WithLabelValues(entity, action, outcome).Inc()
}
