// Package engine provides pluggable text-recognition backends. A backend is
// a black box that takes one cropped, preprocessed region image and returns
// zero or more text fragments with quadrilateral locations and confidences.
// Everything downstream (scoring, selection, parsing) is backend-agnostic.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/MeKo-Tech/golfocr/internal/extract"
)

// ErrNoBackend is returned when the selected backend is not compiled into
// this binary (e.g. the tesseract backend without the "tesseract" build tag).
var ErrNoBackend = errors.New("recognition backend not available in this build")

// Backend is a pluggable text-recognition implementation. Recognize returns
// the fragments detected in img in crop-local coordinates; an empty result
// is valid and must not be treated as an error.
//
// Implementations document their own concurrency guarantees; cgo-backed
// implementations are not safe for concurrent Recognize calls and callers
// should create one Backend per worker.
type Backend interface {
	Recognize(ctx context.Context, img image.Image) ([]extract.Fragment, error)
	Close() error
}

// Config controls backend construction.
type Config struct {
	// Backend selects the implementation: "onnx" or "tesseract".
	Backend string

	// ModelPath and DictPath configure the ONNX recognition model and its
	// character dictionary.
	ModelPath string
	DictPath  string

	// Language and Whitelist configure the Tesseract backend.
	Language  string
	Whitelist string

	// ImageHeight is the input height the recognition model expects.
	ImageHeight int

	// NumThreads bounds intra-op parallelism; 0 lets the runtime decide.
	NumThreads int

	// MinConfidence drops fragments the backend itself is unsure about,
	// before scoring sees them. 0 keeps everything.
	MinConfidence float64
}

// New constructs the configured backend.
func New(cfg Config) (Backend, error) {
	switch cfg.Backend {
	case "tesseract":
		return newTesseractBackend(cfg)
	case "onnx", "":
		return newONNXBackend(cfg)
	default:
		return nil, fmt.Errorf("unknown recognition backend: %q", cfg.Backend)
	}
}
