package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/golfocr/internal/pipeline"
	"github.com/MeKo-Tech/golfocr/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("encoding health response", "error", err)
	}
}

// extractHandler processes a multipart image upload and returns the
// extracted shot metrics.
func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	maxBytes := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > maxBytes {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}
	uploadSizeBytes.Observe(float64(header.Size))

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read image data", http.StatusInternalServerError)
		return
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
		return
	}

	if s.extractor == nil {
		s.writeErrorResponse(w, "Extractor not initialized", http.StatusServiceUnavailable)
		return
	}

	result, err := s.runExtraction(r.Context(), img, "http")
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Extraction failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ExtractResponse{Success: true, Result: result}); err != nil {
		slog.Error("encoding extract response", "error", err)
	}
}

// runExtraction serializes access to the extractor, applies the request
// timeout and records the processing metrics.
func (s *Server) runExtraction(ctx context.Context, img image.Image, source string) (pipeline.ShotResult, error) {
	if s.timeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.timeoutSec)*time.Second)
		defer cancel()
	}

	s.mu.Lock()
	start := time.Now()
	result, err := s.extractor.ExtractImage(ctx, img)
	duration := time.Since(start)
	s.mu.Unlock()

	if err != nil {
		extractRequestsTotal.WithLabelValues(source, "error").Inc()
		return nil, err
	}

	extractRequestsTotal.WithLabelValues(source, "success").Inc()
	extractDuration.WithLabelValues(source).Observe(duration.Seconds())
	metricsExtracted.WithLabelValues(source).Observe(float64(nonEmptyFields(result)))
	return result, nil
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ExtractResponse{Success: false, Error: message}); err != nil {
		slog.Error("encoding error response", "error", err)
	}
}
