//go:build tesseract

package engine

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/golfocr/internal/extract"
	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// tesseractBackend recognizes word-level boxes through a persistent
// Tesseract client. Gosseract wants a file path, so each crop is written to
// a temp PNG before recognition.
//
// Not safe for concurrent Recognize calls; create one backend per worker.
type tesseractBackend struct {
	client        *gosseract.Client
	minConfidence float64
}

func newTesseractBackend(cfg Config) (Backend, error) {
	client := gosseract.NewClient()

	lang := cfg.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("setting tesseract language %q: %w", lang, err)
	}
	if cfg.Whitelist != "" {
		if err := client.SetWhitelist(cfg.Whitelist); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("setting tesseract whitelist: %w", err)
		}
	}

	return &tesseractBackend{
		client:        client,
		minConfidence: cfg.MinConfidence,
	}, nil
}

func (b *tesseractBackend) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

func (b *tesseractBackend) Recognize(ctx context.Context, img image.Image) ([]extract.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	tmpDir, err := os.MkdirTemp("", "golfocr-tess-")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	tmpPath := filepath.Join(tmpDir, "crop.png")
	if err := imaging.Save(img, tmpPath); err != nil {
		return nil, fmt.Errorf("writing temp image: %w", err)
	}
	if err := b.client.SetImage(tmpPath); err != nil {
		return nil, fmt.Errorf("loading image into tesseract: %w", err)
	}

	boxes, err := b.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract recognition: %w", err)
	}

	fragments := make([]extract.Fragment, 0, len(boxes))
	for _, box := range boxes {
		text := cleanText(strings.TrimSpace(box.Word))
		if text == "" {
			continue
		}
		conf := box.Confidence / 100.0
		if conf < b.minConfidence {
			continue
		}
		fragments = append(fragments, extract.Fragment{
			Quad: extract.QuadFromRect(
				float64(box.Box.Min.X), float64(box.Box.Min.Y),
				float64(box.Box.Max.X), float64(box.Box.Max.Y),
			),
			Text:       text,
			Confidence: conf,
		})
	}
	return fragments, nil
}
