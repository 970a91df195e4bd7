package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/golfocr/internal/config"
	"github.com/MeKo-Tech/golfocr/internal/engine"
	"github.com/MeKo-Tech/golfocr/internal/pipeline"
)

// imageCmd represents the image command.
var imageCmd = &cobra.Command{
	Use:   "image [flags] <image-file>...",
	Short: "Extract shot metrics from screenshot files",
	Long: `Extract golf shot metrics from one or more screenshot files.

Each metric defined in the layout file is cropped out of the screenshot,
recognized, and parsed. Results are printed as text, JSON or CSV.

Examples:
  golfocr image shot.png
  golfocr image shot.png --format json
  golfocr image *.png --format csv --output results.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImage,
}

func runImage(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	outputFile := cfg.Output.File
	if cmd.Flags().Changed("output") {
		outputFile, _ = cmd.Flags().GetString("output")
	}

	metrics, err := loadMetricSet(cfg)
	if err != nil {
		return err
	}

	backend, err := engine.New(engineConfig(cfg, cmd))
	if err != nil {
		return fmt.Errorf("creating recognition backend: %w", err)
	}
	extractor := pipeline.New(metrics, backend, nil)
	defer func() { _ = extractor.Close() }()

	results := make(map[string]map[string]string, len(args))
	order := make([]string, 0, len(args))
	for _, path := range args {
		fields, err := extractor.ExtractFile(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("processing %s: %w", path, err)
		}
		name := filepath.Base(path)
		results[name] = fields
		order = append(order, name)
	}

	out, err := formatResults(results, order, format)
	if err != nil {
		return err
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(out), 0o644); err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

// formatResults renders per-file results in the requested output format.
func formatResults(results map[string]map[string]string, order []string, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding results: %w", err)
		}
		return string(data) + "\n", nil

	case "csv":
		fieldSet := make(map[string]bool)
		for _, fields := range results {
			for key := range fields {
				fieldSet[key] = true
			}
		}
		fieldNames := make([]string, 0, len(fieldSet))
		for key := range fieldSet {
			fieldNames = append(fieldNames, key)
		}
		sort.Strings(fieldNames)

		var sb strings.Builder
		w := csv.NewWriter(&sb)
		if err := w.Write(append([]string{"filename"}, fieldNames...)); err != nil {
			return "", err
		}
		for _, name := range order {
			row := []string{name}
			for _, field := range fieldNames {
				row = append(row, results[name][field])
			}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
		w.Flush()
		return sb.String(), w.Error()

	case "text", "":
		var sb strings.Builder
		for _, name := range order {
			if len(order) > 1 {
				fmt.Fprintf(&sb, "%s:\n", name)
			}
			fields := results[name]
			keys := make([]string, 0, len(fields))
			for key := range fields {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(&sb, "  %s: %s\n", key, fields[key])
			}
		}
		return sb.String(), nil

	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

// loadMetricSet loads and validates the metric layout document.
func loadMetricSet(cfg *config.Config) (*config.MetricSet, error) {
	metrics, err := config.LoadMetricSet(cfg.MetricsFile)
	if err != nil {
		return nil, fmt.Errorf("loading metric layout %s: %w", cfg.MetricsFile, err)
	}
	return metrics, nil
}

// engineConfig builds the backend configuration with CLI flag overrides.
func engineConfig(cfg *config.Config, cmd *cobra.Command) engine.Config {
	ec := engine.Config{
		Backend:       cfg.Engine.Backend,
		ModelPath:     cfg.Engine.ModelPath,
		DictPath:      cfg.Engine.DictPath,
		Language:      cfg.Engine.Language,
		Whitelist:     cfg.Engine.Whitelist,
		ImageHeight:   cfg.Engine.ImageHeight,
		NumThreads:    cfg.Engine.NumThreads,
		MinConfidence: cfg.Engine.MinConfidence,
	}

	if cmd.Flags().Changed("backend") {
		ec.Backend, _ = cmd.Flags().GetString("backend")
	}
	if cmd.Flags().Changed("model") {
		ec.ModelPath, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("dict") {
		ec.DictPath, _ = cmd.Flags().GetString("dict")
	}
	if cmd.Flags().Changed("language") {
		ec.Language, _ = cmd.Flags().GetString("language")
	}
	if cmd.Flags().Changed("whitelist") {
		ec.Whitelist, _ = cmd.Flags().GetString("whitelist")
	}
	if cmd.Flags().Changed("min-confidence") {
		ec.MinConfidence, _ = cmd.Flags().GetFloat64("min-confidence")
	}

	return ec
}

// addEngineFlags registers the backend override flags shared by the
// extraction commands.
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().String("backend", "onnx", "recognition backend (onnx, tesseract)")
	cmd.Flags().String("model", "", "override recognition model path")
	cmd.Flags().String("dict", "", "override recognition dictionary path")
	cmd.Flags().String("language", "eng", "tesseract language")
	cmd.Flags().String("whitelist", "", "tesseract character whitelist")
	cmd.Flags().Float64("min-confidence", 0.0, "drop fragments below this confidence (0..1)")
}

func init() {
	rootCmd.AddCommand(imageCmd)
	imageCmd.Flags().StringP("format", "f", "text", "output format (text, json, csv)")
	imageCmd.Flags().StringP("output", "o", "", "write output to file instead of stdout")
	addEngineFlags(imageCmd)
}
