package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/golfocr/internal/batch"
	"github.com/MeKo-Tech/golfocr/internal/engine"
	"github.com/MeKo-Tech/golfocr/internal/pipeline"
)

// batchCmd represents the batch command.
var batchCmd = &cobra.Command{
	Use:   "batch [flags] <input-dir>",
	Short: "Extract shot metrics from a directory of screenshots",
	Long: `Process every screenshot in a directory with a pool of workers and write
the combined results to golf_ocr_results.json and golf_ocr_results.csv.

Examples:
  golfocr batch ./screenshots
  golfocr batch ./screenshots --output-dir ./results --workers 8
  golfocr batch ./screenshots --continue-on-error=false`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	outputDir := cfg.Batch.OutputDir
	if cmd.Flags().Changed("output-dir") {
		outputDir, _ = cmd.Flags().GetString("output-dir")
	}
	workers := cfg.Batch.Workers
	if cmd.Flags().Changed("workers") {
		workers, _ = cmd.Flags().GetInt("workers")
	}
	continueOnError := cfg.Batch.ContinueOnError
	if cmd.Flags().Changed("continue-on-error") {
		continueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	}

	metrics, err := loadMetricSet(cfg)
	if err != nil {
		return err
	}
	ec := engineConfig(cfg, cmd)

	// Backends are single-threaded, so each worker builds its own.
	factory := func() (batch.Extractor, error) {
		backend, err := engine.New(ec)
		if err != nil {
			return nil, err
		}
		return pipeline.New(metrics, backend, nil), nil
	}

	processor := batch.NewProcessor(batch.Config{
		InputDir:        args[0],
		OutputDir:       outputDir,
		Workers:         workers,
		ContinueOnError: continueOnError,
	}, factory, slog.Default())

	summary, err := processor.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Processed %d images (%d succeeded, %d failed) in %s\n",
		summary.Total, summary.Succeeded, summary.Failed, summary.Duration.Round(time.Millisecond))
	fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s and %s\n", summary.JSONPath, summary.CSVPath)
	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringP("output-dir", "o", "output", "directory for the result files")
	batchCmd.Flags().IntP("workers", "w", 4, "number of parallel workers")
	batchCmd.Flags().Bool("continue-on-error", true, "record per-file failures instead of aborting")
	addEngineFlags(batchCmd)
}
