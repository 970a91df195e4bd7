package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golfocr_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "golfocr_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Extraction metrics
	extractRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golfocr_extract_requests_total",
			Help: "Total number of extraction requests",
		},
		[]string{"source", "status"}, // source: http, websocket
	)

	extractDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "golfocr_extract_duration_seconds",
			Help:    "Extraction duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	metricsExtracted = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "golfocr_metrics_nonempty",
			Help:    "Number of non-empty metric values per extracted image",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 7, 10, 15},
		},
		[]string{"source"},
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "golfocr_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "golfocr_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "golfocr_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)

// nonEmptyFields counts filled values in a result, for the histogram above.
func nonEmptyFields(fields map[string]string) int {
	n := 0
	for _, v := range fields {
		if v != "" {
			n++
		}
	}
	return n
}
