// Package pipeline orchestrates metric extraction from a shot-summary
// screenshot: crop each configured region, recognize its text, score the
// fragments against the region center, and post-process the winning value
// into the output fields.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/MeKo-Tech/golfocr/internal/config"
	"github.com/MeKo-Tech/golfocr/internal/engine"
	"github.com/MeKo-Tech/golfocr/internal/extract"
	"github.com/MeKo-Tech/golfocr/internal/parse"
	"github.com/disintegration/imaging"
)

// ShotResult maps output field names to extracted values. Missing or
// unreadable metrics are present with empty values so consumers see a
// stable schema.
type ShotResult map[string]string

// Extractor binds a metric layout to a recognition backend.
//
// Concurrency follows the backend: the ONNX and Tesseract backends are not
// safe for concurrent Recognize calls, so share an Extractor only across
// sequential work and give each worker its own.
type Extractor struct {
	metrics *config.MetricSet
	backend engine.Backend
	logger  *slog.Logger
}

// New creates an Extractor. The logger may be nil.
func New(metrics *config.MetricSet, backend engine.Backend, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		metrics: metrics,
		backend: backend,
		logger:  logger,
	}
}

// Close releases the underlying backend.
func (e *Extractor) Close() error {
	if e.backend != nil {
		return e.backend.Close()
	}
	return nil
}

// ExtractImage runs every configured metric over img, in the layout's
// document order, and returns the assembled result.
func (e *Extractor) ExtractImage(ctx context.Context, img image.Image) (ShotResult, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	result := make(ShotResult, e.metrics.Len()+2)

	for _, name := range e.metrics.Names() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		mc, _ := e.metrics.Get(name)
		if !mc.HasRegion() {
			applyMetric(result, name, "")
			continue
		}

		value, err := e.extractMetric(ctx, img, name, mc)
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", name, err)
		}

		e.logger.Debug("metric extracted",
			slog.String("metric", name),
			slog.String("value", value))

		applyMetric(result, name, value)
	}

	return result, nil
}

// ExtractFile loads the image at path and extracts all metrics from it.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (ShotResult, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return e.ExtractImage(ctx, img)
}

func (e *Extractor) extractMetric(ctx context.Context, img image.Image, name string, mc config.MetricConfig) (string, error) {
	region := mc.Region()
	crop := imaging.Crop(img, image.Rect(
		int(region.X),
		int(region.Y),
		int(region.X+region.Width),
		int(region.Y+region.Height),
	))
	crop = imaging.Grayscale(crop)

	fragments, err := e.backend.Recognize(ctx, crop)
	if err != nil {
		return "", err
	}

	cx, cy := region.Center()
	return extract.Select(
		fragments,
		extract.Point{X: cx, Y: cy},
		mc.ExpectDecimal,
		e.metrics.Pattern(name),
	), nil
}

// applyMetric writes the post-processed value under its output field name.
// Dates are normalized to YYYYMMDD and yardage ranges fan out into three
// fields; everything else maps straight through.
func applyMetric(result ShotResult, name, value string) {
	switch name {
	case "DATE":
		result["date"] = parse.NormalizeDate(value)
	case "YARDAGE_RANGE":
		full, from, to := parse.DecomposeRange(value)
		result["yardage_range"] = full
		result["yardage_from"] = from
		result["yardage_to"] = to
	default:
		result[outputKey(name)] = value
	}
}

func outputKey(name string) string {
	switch name {
	case "SHOT_ID":
		return "shot_id"
	case "DISTANCE_TO_PIN":
		return "distance_to_pin"
	case "CARRY":
		return "carry"
	case "FROM_PIN":
		return "from_pin"
	case "STROKES_GAINED":
		return "sg_individual"
	default:
		return strings.ToLower(name)
	}
}
