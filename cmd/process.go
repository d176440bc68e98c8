// =============================================================================
// Tabular Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, which converts every input file
// of the input directory (or a single --file) to the requested formats.
//
// COMMAND USAGE:
//   converter process [flags]
//
// FLAGS:
//   --input              : Input directory (overrides input_dir)
//   --output             : Output directory (overrides output_dir)
//   --format             : Output format(s), repeatable; "csv|parquet" allowed
//   --header-mode        : detect, present or absent
//   --standardize-dates  : Enable or disable date normalization
//   --dry-run            : Resolve and transform without writing outputs
//   --file               : Convert a single file instead of the directory
//
// PROCESSING PIPELINE:
//   1. Load and validate the configuration
//   2. Discover input files (sorted by name)
//   3. Convert each file (bounded by max_concurrency)
//   4. Print the results in listing order
//   5. Write the summary and diagnostics logs (write_reports)
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/csv-parquet-converter/internal/config"
	"github.com/ginjaninja78/csv-parquet-converter/internal/converter"
	"github.com/ginjaninja78/csv-parquet-converter/internal/diagnostics"
	"github.com/ginjaninja78/csv-parquet-converter/internal/types"
	"github.com/ginjaninja78/csv-parquet-converter/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	processInput      string
	processOutput     string
	processFormats    []string
	processHeaderMode string
	standardizeDates  bool
	dryRun            bool
	filePath          string
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Convert input files to the configured output formats",
	Long: `The process command scans the input directory for input files, resolves
each file's schema (its own header row, or a sidecar declaration with the same
base name), normalizes date fields, and writes one output file per requested
format into the output directory.

Errors in one file do not stop the others unless continue_on_error is false.
Existing output files are replaced.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&processInput, "input", "", "Input directory (overrides input_dir)")
	processCmd.Flags().StringVar(&processOutput, "output", "", "Output directory (overrides output_dir)")
	processCmd.Flags().StringArrayVar(&processFormats, "format", nil, `Output format, repeatable; "csv|parquet" selects both`)
	processCmd.Flags().StringVar(&processHeaderMode, "header-mode", "", "Header handling: detect, present or absent")
	processCmd.Flags().BoolVar(&standardizeDates, "standardize-dates", true, "Normalize MM/DD/YYYY date fields to YYYY-MM-DD")
	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve and transform without writing output files")
	processCmd.Flags().StringVar(&filePath, "file", "", "Convert a single file instead of the input directory")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess loads the configuration, converts the files and reports.
func runProcess(cmd *cobra.Command) error {
	startTime := time.Now()

	cfg, err := loadConfig(func(cfg *config.MainConfig) {
		if processInput != "" {
			cfg.InputDir = processInput
		}
		if processOutput != "" {
			cfg.OutputDir = processOutput
		}
		if len(processFormats) > 0 {
			cfg.OutputFormats = processFormats
		}
		if processHeaderMode != "" {
			cfg.HeaderMode = config.ParseHeaderMode(processHeaderMode)
		}
		if cmd.Flags().Changed("standardize-dates") {
			cfg.StandardizeDates = config.Bool(standardizeDates)
		}
	})
	if err != nil {
		return err
	}
	if err := absolutePaths(cfg); err != nil {
		return err
	}

	runID := uuid.New().String()
	logger := newLogger(cfg).With("run_id", runID)

	files := utils.NewFileManager(osfs.New("/"), cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir)
	if err := files.EnsureDirectories(); err != nil {
		return err
	}

	// =========================================================================
	// DISCOVER INPUT FILES
	// =========================================================================

	var inputs []string
	if filePath != "" {
		abs, err := filepath.Abs(filePath)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", filePath, err)
		}
		inputs = []string{abs}
	} else {
		inputs, err = files.DiscoverInputFiles(cfg.InputExtension)
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if len(inputs) == 0 {
		fmt.Fprintf(out, "No %s files found in %s.\n", cfg.InputExtension, cfg.InputDir)
		return nil
	}

	logger.Info("starting run", "files", len(inputs), "formats", cfg.OutputFormats, "dry_run", dryRun)

	// =========================================================================
	// CONVERT
	// =========================================================================

	results := runBatch(cmd.Context(), inputs, cfg, files, logger, dryRun)

	// =========================================================================
	// REPORT
	// =========================================================================

	summary := summarize(runID, startTime, time.Now(), inputs, results)
	printResults(cmd, summary, results)

	if cfg.WriteReports && !dryRun {
		if err := writeReports(files, summary, results); err != nil {
			logger.Error("failed to write reports", "error", err)
		}
	}

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// =============================================================================
// BATCH EXECUTION
// =============================================================================

// runBatch converts every input and returns the results in input order.
//
// At most cfg.MaxConcurrency files are converted at once; with the default
// of 1 the files are converted one after another. No new file is started
// once ctx is done, or after the first failure when continue_on_error is
// false; files never started are absent from the results.
func runBatch(ctx context.Context, inputs []string, cfg *config.MainConfig, files *utils.FileManager, logger *slog.Logger, dry bool) []converter.Result {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]converter.Result, len(inputs))
	started := make([]bool, len(inputs))
	var failed atomic.Bool

	var g errgroup.Group
	g.SetLimit(cfg.MaxConcurrency)

	for i, input := range inputs {
		if ctx.Err() != nil || (!cfg.KeepGoing() && failed.Load()) {
			break
		}

		g.Go(func() error {
			// Go blocks until a slot is free, so a failure may have landed
			// while this file was waiting.
			if ctx.Err() != nil || (!cfg.KeepGoing() && failed.Load()) {
				return nil
			}
			started[i] = true

			conv := converter.New(input, cfg, files, logger)
			conv.DryRun = dry
			results[i] = conv.Run()
			if !results[i].Success {
				failed.Store(true)
			}
			return nil
		})
	}
	g.Wait()

	ordered := make([]converter.Result, 0, len(inputs))
	for i, ok := range started {
		if ok {
			ordered = append(ordered, results[i])
		}
	}
	return ordered
}

// summarize folds the results into a processing summary.
func summarize(runID string, start, end time.Time, inputs []string, results []converter.Result) utils.ProcessingSummary {
	summary := utils.ProcessingSummary{
		RunID:      runID,
		StartTime:  start,
		EndTime:    end,
		TotalFiles: len(inputs),
	}

	for _, result := range results {
		summary.TotalDiagnostics += len(result.Diagnostics)

		if !result.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    result.FilePath,
				ErrorMessage: fmt.Sprint(result.Error),
				ErrorType:    string(types.CodeOf(result.Error)),
			})
			continue
		}

		summary.SuccessfulFiles++
		summary.TotalRows += result.Stats.Rows
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:    result.FilePath,
			OutputFiles:  result.OutputFiles,
			ArchivePath:  result.ArchivePath,
			HeaderSource: result.Stats.HeaderSource.String(),
			Rows:         result.Stats.Rows,
			Diagnostics:  len(result.Diagnostics),
			ProcessTime:  result.Stats.ProcessingTime,
		})
	}

	return summary
}

// printResults prints one line per file and the run totals.
func printResults(cmd *cobra.Command, summary utils.ProcessingSummary, results []converter.Result) {
	out := cmd.OutOrStdout()

	for _, result := range results {
		name := filepath.Base(result.FilePath)
		if !result.Success {
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, result.Error)
			continue
		}
		for _, output := range result.OutputFiles {
			fmt.Fprintf(out, "  ✓ %s -> %s\n", name, output)
		}
		if len(result.OutputFiles) == 0 {
			fmt.Fprintf(out, "  ✓ %s (no outputs)\n", name)
		}
		if len(result.Diagnostics) > 0 {
			fmt.Fprintf(out, "    diagnostics: %s\n", diagnostics.FormatSummary(result.Diagnostics))
		}
	}

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Run ID:          %s\n", summary.RunID)
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	if skipped := summary.TotalFiles - len(results); skipped > 0 {
		fmt.Fprintf(out, "Not started:     %d\n", skipped)
	}
	fmt.Fprintf(out, "Rows converted:  %d\n", summary.TotalRows)
	fmt.Fprintf(out, "Diagnostics:     %d\n", summary.TotalDiagnostics)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))
}

// writeReports writes the summary log and, if any, the diagnostics log.
func writeReports(files *utils.FileManager, summary utils.ProcessingSummary, results []converter.Result) error {
	if _, err := files.WriteSummaryLog(summary); err != nil {
		return err
	}

	var all []diagnostics.Diagnostic
	for _, result := range results {
		all = append(all, result.Diagnostics...)
	}
	_, err := files.WriteDiagnosticsLog(all, summary.EndTime)
	return err
}
