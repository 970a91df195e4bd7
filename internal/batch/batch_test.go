package batch

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/golfocr/internal/pipeline"
)

type fakeExtractor struct {
	failOn map[string]bool
}

func (f *fakeExtractor) ExtractFile(_ context.Context, path string) (pipeline.ShotResult, error) {
	name := filepath.Base(path)
	if f.failOn[name] {
		return nil, fmt.Errorf("unreadable image")
	}
	return pipeline.ShotResult{
		"carry":   "156",
		"shot_id": name,
	}, nil
}

func (f *fakeExtractor) Close() error { return nil }

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
}

func TestDiscoverImages(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.png", "a.JPG", "c.tiff", "notes.txt", "d.jpeg", "e.bmp")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	paths, err := DiscoverImages(dir)
	require.NoError(t, err)

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	assert.Equal(t, []string{"a.JPG", "b.png", "c.tiff", "d.jpeg", "e.bmp"}, names)
}

func TestDiscoverImagesMissingDir(t *testing.T) {
	_, err := DiscoverImages(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestRunWritesResults(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "shot1.png", "shot2.png", "shot3.png")

	p := NewProcessor(Config{InputDir: dir, Workers: 2, ContinueOnError: true},
		func() (Extractor, error) { return &fakeExtractor{}, nil }, nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)

	data, err := os.ReadFile(summary.JSONPath)
	require.NoError(t, err)
	var results map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &results))
	assert.Len(t, results, 3)
	assert.Equal(t, "156", results["shot1.png"]["carry"])

	f, err := os.Open(summary.CSVPath)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"filename", "carry", "shot_id"}, rows[0])
	assert.Equal(t, []string{"shot1.png", "156", "shot1.png"}, rows[1])
}

func TestRunCreatesOutputDir(t *testing.T) {
	inputDir := t.TempDir()
	writeFiles(t, inputDir, "shot.png")
	outputDir := filepath.Join(t.TempDir(), "results", "run1")

	p := NewProcessor(Config{InputDir: inputDir, OutputDir: outputDir, Workers: 1},
		func() (Extractor, error) { return &fakeExtractor{}, nil }, nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outputDir, "golf_ocr_results.json"), summary.JSONPath)

	_, err = os.Stat(summary.JSONPath)
	require.NoError(t, err)
	_, err = os.Stat(summary.CSVPath)
	require.NoError(t, err)
}

func TestRunContinueOnError(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "good.png", "bad.png")

	p := NewProcessor(Config{InputDir: dir, Workers: 1, ContinueOnError: true},
		func() (Extractor, error) {
			return &fakeExtractor{failOn: map[string]bool{"bad.png": true}}, nil
		}, nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	data, err := os.ReadFile(summary.JSONPath)
	require.NoError(t, err)
	var results map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &results))
	assert.Equal(t, "unreadable image", results["bad.png"]["error"])

	// The error pseudo-field must not leak into the CSV header.
	f, err := os.Open(summary.CSVPath)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.NotContains(t, rows[0], "error")
}

func TestRunAbortsOnError(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "bad.png")

	p := NewProcessor(Config{InputDir: dir, Workers: 1, ContinueOnError: false},
		func() (Extractor, error) {
			return &fakeExtractor{failOn: map[string]bool{"bad.png": true}}, nil
		}, nil)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.png")
}

func TestRunEmptyDirectory(t *testing.T) {
	p := NewProcessor(Config{InputDir: t.TempDir(), Workers: 1},
		func() (Extractor, error) { return &fakeExtractor{}, nil }, nil)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image files")
}

func TestRunFactoryFailure(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "shot.png")

	p := NewProcessor(Config{InputDir: dir, Workers: 1},
		func() (Extractor, error) { return nil, fmt.Errorf("no model") }, nil)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no model")
}
