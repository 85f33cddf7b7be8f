package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestTotal counts HTTP requests by method and path prefix.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitrail_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "splitrail_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	// TokenOperations counts API token create/delete/authenticate outcomes.
	TokenOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitrail_api_token_operations_total",
			Help: "Total number of API token operations",
		},
		[]string{"operation", "status"},
	)
	UploadedStats = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "splitrail_uploaded_stats_total",
			Help: "Daily stat rows accepted from CLI uploads",
		},
	)
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitrail_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)
	EventStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "splitrail_event_streams",
			Help: "Open dashboard event streams",
		},
	)
)

// ObserveToken records the outcome of an API token operation.
func ObserveToken(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	TokenOperations.WithLabelValues(operation, status).Inc()
}
