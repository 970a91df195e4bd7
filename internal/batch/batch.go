// Package batch processes a directory of shot-summary screenshots with a
// pool of workers and writes the combined results to JSON and CSV files.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/MeKo-Tech/golfocr/internal/pipeline"
)

// Extractor is the part of pipeline.Extractor the batch runner needs.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) (pipeline.ShotResult, error)
	Close() error
}

// ExtractorFactory creates one Extractor per worker. Recognition backends
// are not safe for concurrent use, so each worker owns its own instance.
type ExtractorFactory func() (Extractor, error)

// Config controls a batch run.
type Config struct {
	InputDir        string
	OutputDir       string
	Workers         int
	ContinueOnError bool
}

// Summary reports the outcome of a batch run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Duration  time.Duration
	JSONPath  string
	CSVPath   string
}

// Processor runs extraction over a directory of images.
type Processor struct {
	cfg     Config
	factory ExtractorFactory
	logger  *slog.Logger
}

// NewProcessor creates a Processor. The logger may be nil.
func NewProcessor(cfg Config, factory ExtractorFactory, logger *slog.Logger) *Processor {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = cfg.InputDir
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{cfg: cfg, factory: factory, logger: logger}
}

type fileResult struct {
	filename string
	fields   pipeline.ShotResult
	err      error
}

// Run discovers the images in the input directory, extracts metrics from
// each with a worker pool, and writes the result files. A per-file failure
// aborts the run unless ContinueOnError is set, in which case it is recorded
// under an "error" field for that file.
func (p *Processor) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	paths, err := DiscoverImages(p.cfg.InputDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no image files found in %s", p.cfg.InputDir)
	}

	if err := os.MkdirAll(p.cfg.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", p.cfg.OutputDir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	resultCh := make(chan fileResult, len(paths))

	var wg sync.WaitGroup
	workerErrs := make([]error, p.cfg.Workers)
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			workerErrs[slot] = p.worker(ctx, cancel, jobs, resultCh)
		}(i)
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(resultCh)

	for _, err := range workerErrs {
		if err != nil {
			return nil, err
		}
	}

	results := make(map[string]map[string]string, len(paths))
	summary := &Summary{Total: len(paths)}
	for r := range resultCh {
		if r.err != nil {
			summary.Failed++
			results[r.filename] = map[string]string{"error": r.err.Error()}
			continue
		}
		summary.Succeeded++
		results[r.filename] = r.fields
	}

	if summary.JSONPath, err = WriteJSON(p.cfg.OutputDir, results); err != nil {
		return nil, err
	}
	if summary.CSVPath, err = WriteCSV(p.cfg.OutputDir, results); err != nil {
		return nil, err
	}

	summary.Duration = time.Since(start)
	p.logger.Info("batch complete",
		slog.Int("total", summary.Total),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.Duration("duration", summary.Duration))

	return summary, nil
}

func (p *Processor) worker(ctx context.Context, cancel context.CancelFunc, jobs <-chan string, results chan<- fileResult) error {
	extractor, err := p.factory()
	if err != nil {
		cancel()
		return fmt.Errorf("creating extractor: %w", err)
	}
	defer func() { _ = extractor.Close() }()

	for path := range jobs {
		fields, err := extractor.ExtractFile(ctx, path)
		filename := filepath.Base(path)

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("file failed",
				slog.String("file", filename),
				slog.String("error", err.Error()))
			if !p.cfg.ContinueOnError {
				cancel()
				return fmt.Errorf("processing %s: %w", filename, err)
			}
			results <- fileResult{filename: filename, err: err}
			continue
		}

		results <- fileResult{filename: filename, fields: fields}
	}
	return nil
}
