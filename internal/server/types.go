// Package server exposes metric extraction over HTTP: a health endpoint,
// a multipart upload endpoint, Prometheus metrics and a WebSocket channel
// for interactive clients.
package server

import (
	"context"
	"image"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/golfocr/internal/pipeline"
)

// extractorInterface defines what the server needs from a pipeline.
type extractorInterface interface {
	ExtractImage(ctx context.Context, img image.Image) (pipeline.ShotResult, error)
	Close() error
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	extractor   extractorInterface
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int

	// Recognition backends are single-threaded; serialize extraction.
	mu sync.Mutex
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// ExtractResponse is the /extract payload.
type ExtractResponse struct {
	Success bool                `json:"success"`
	Result  pipeline.ShotResult `json:"result,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// NewServer creates a server around an existing extractor.
func NewServer(config Config, extractor extractorInterface) *Server {
	return &Server{
		extractor:   extractor,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
	}
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.extractor != nil {
		return s.extractor.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/extract", s.corsMiddleware(s.extractHandler))
	mux.HandleFunc("/ws", s.extractWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
