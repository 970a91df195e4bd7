package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "golfocr.yaml")
	content := `
log_level: debug
metrics_file: layouts/sim.json
engine:
  backend: tesseract
  whitelist: "0123456789.-+#"
batch:
  workers: 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	loader := NewLoader()
	cfg, err := loader.LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "layouts/sim.json", cfg.MetricsFile)
	assert.Equal(t, "tesseract", cfg.Engine.Backend)
	assert.Equal(t, "0123456789.-+#", cfg.Engine.Whitelist)
	assert.Equal(t, 8, cfg.Batch.Workers)
	// Unset values fall back to defaults.
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadWithFileMissing(t *testing.T) {
	loader := NewLoader()
	_, err := loader.LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadWithFileInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "golfocr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: noisy\n"), 0o600))

	loader := NewLoader()
	_, err := loader.LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
