// Package config holds the golfocr application configuration: the viper
// based settings loader used by every command, and the metric-layout
// document (region geometry per metric) together with the validators that
// gate it before any image is cropped.
package config

import (
	"fmt"
	"strings"
)

// Config represents the complete configuration for the golfocr application.
// It covers all commands (image, batch, serve) and is loaded from
// configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// MetricsFile is the path to the metric-layout document (JSON) that
	// defines one bounding box per metric on the shot-summary screen.
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`

	// Recognition engine settings
	Engine EngineConfig `mapstructure:"engine" yaml:"engine" json:"engine"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// EngineConfig contains text-recognition backend settings.
type EngineConfig struct {
	// Backend selects the recognition implementation: "onnx" or "tesseract".
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"`

	ModelPath     string  `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	DictPath      string  `mapstructure:"dict_path" yaml:"dict_path" json:"dict_path"`
	Language      string  `mapstructure:"language" yaml:"language" json:"language"`
	Whitelist     string  `mapstructure:"whitelist" yaml:"whitelist" json:"whitelist"`
	ImageHeight   int     `mapstructure:"image_height" yaml:"image_height" json:"image_height"`
	NumThreads    int     `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int64  `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	OutputDir       string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	ContinueOnError bool   `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:    "info",
		Verbose:     false,
		MetricsFile: "config.json",
		Engine: EngineConfig{
			Backend:       "onnx",
			Language:      "eng",
			ImageHeight:   48,
			NumThreads:    0,
			MinConfidence: 0.0,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
		Batch: BatchConfig{
			Workers:         4,
			OutputDir:       "output",
			ContinueOnError: true,
		},
	}
}

// Validate validates the application configuration and returns any errors.
// The metric-layout document has its own validator (ValidateDocument) since
// it is loaded from its own file.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)",
			c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "csv"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)",
			c.Output.Format, strings.Join(validFormats, ", "))
	}

	validBackends := []string{"onnx", "tesseract"}
	if !contains(validBackends, c.Engine.Backend) {
		return fmt.Errorf("invalid engine backend: %s (must be one of: %s)",
			c.Engine.Backend, strings.Join(validBackends, ", "))
	}

	if c.Engine.MinConfidence < 0.0 || c.Engine.MinConfidence > 1.0 {
		return fmt.Errorf("invalid engine.min_confidence: %.2f (must be between 0.0 and 1.0)",
			c.Engine.MinConfidence)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}

	return nil
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
