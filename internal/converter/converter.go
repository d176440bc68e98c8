// =============================================================================
// Tabular Converter - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It orchestrates the entire
// conversion pipeline for a single file.
//
// CONVERSION PIPELINE:
//   1. Read the input file
//   2. Resolve the FieldSchema (own header row or sidecar declaration)
//   3. Normalize date fields
//   4. Apply transformation rules
//   5. Write one output per requested format
//   6. Archive the processed input (optional)
//
// CONCURRENCY:
//   A Converter owns its diagnostics collector and shares no mutable state,
//   so several converters may run at once.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ginjaninja78/csv-parquet-converter/internal/config"
	"github.com/ginjaninja78/csv-parquet-converter/internal/diagnostics"
	"github.com/ginjaninja78/csv-parquet-converter/internal/schema"
	"github.com/ginjaninja78/csv-parquet-converter/internal/types"
	"github.com/ginjaninja78/csv-parquet-converter/internal/writer"
	"github.com/ginjaninja78/csv-parquet-converter/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFiles are the files written, in format order.
	// In a dry run they are the files that would have been written.
	OutputFiles []string

	// ArchivePath is where the input was moved, if archival ran.
	ArchivePath string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Diagnostics holds everything reported while converting the file.
	Diagnostics []diagnostics.Diagnostic

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// Rows is the number of records converted.
	Rows int

	// Fields is the number of fields in the resolved schema.
	Fields int

	// HeaderSource describes where the schema came from.
	HeaderSource types.HeaderSource

	// Dates counts the outcomes of date normalization.
	Dates DateStats

	// Anomalies is the number of FIELD_EXTRA and FIELD_MISSING diagnostics.
	Anomalies int

	// Unwritten is the number of records carrying values under keys outside
	// the schema. Writers only write schema columns.
	Unwritten int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the conversion of a single input file.
type Converter struct {
	inputPath string
	cfg       *config.MainConfig
	files     *utils.FileManager
	logger    *slog.Logger

	// DryRun resolves and transforms the file but writes and archives nothing.
	DryRun bool
}

// New creates a new Converter instance.
//
// PARAMETERS:
//   - inputPath: The path to the input file.
//   - cfg: The validated configuration.
//   - files: File access for input, declarations, outputs and archival.
//   - logger: The base logger; nil uses slog.Default().
func New(inputPath string, cfg *config.MainConfig, files *utils.FileManager, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		inputPath: inputPath,
		cfg:       cfg,
		files:     files,
		logger:    logger.With("file", inputPath),
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline for the file.
//
// A missing or malformed declaration fails this file only. Unsupported
// output formats are reported and skipped; the remaining formats are still
// written and the file still counts as converted.
func (c *Converter) Run() (result Result) {
	startTime := time.Now()
	collector := diagnostics.NewCollector(c.logger, c.inputPath)

	result = Result{FilePath: c.inputPath}
	defer func() {
		result.Diagnostics = collector.Diagnostics()
		result.Stats.Anomalies = collector.Count(diagnostics.CodeFieldExtra) + collector.Count(diagnostics.CodeFieldMissing)
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	c.logger.Info("processing file")

	// =========================================================================
	// STEPS 1-4: READ, RESOLVE, NORMALIZE, TRANSFORM
	// =========================================================================

	ds, dates, err := c.Load(collector)
	if err != nil {
		result.Error = err
		c.logger.Error("conversion failed", "error", err)
		return result
	}

	result.Stats.Rows = len(ds.Records)
	result.Stats.Fields = len(ds.Schema)
	result.Stats.HeaderSource = ds.HeaderSource
	result.Stats.Dates = dates

	c.logPreview(ds)

	if n := recordsOutsideSchema(ds); n > 0 {
		result.Stats.Unwritten = n
		c.logger.Info("values outside the schema are not written", "records", n)
	}

	// =========================================================================
	// STEP 5: WRITE OUTPUTS
	// =========================================================================

	for _, format := range writer.ParseFormats(c.cfg.OutputFormats) {
		w, err := writer.Lookup(format)
		if err != nil {
			collector.Report(diagnostics.Diagnostic{
				Severity: diagnostics.SeverityError,
				Code:     diagnostics.CodeUnsupportedOutputFormat,
				Message:  fmt.Sprintf("unsupported output format: %s", format),
				Value:    format,
			})
			continue
		}

		outputPath := c.files.OutputPath(c.inputPath, w.Extension())
		if outputPath == c.inputPath {
			result.Error = types.Errorf(types.CodeWriteFailed, outputPath, "output would overwrite the input file")
			c.logger.Error("conversion failed", "error", result.Error)
			return result
		}

		if c.DryRun {
			c.logger.Info("dry run, skipping output", "format", w.Format(), "output", outputPath)
			result.OutputFiles = append(result.OutputFiles, outputPath)
			continue
		}

		if err := c.files.WriteOutput(outputPath, func(out io.Writer) error {
			return w.Write(out, ds)
		}); err != nil {
			result.Error = types.NewError(types.CodeWriteFailed, outputPath, err)
			c.logger.Error("conversion failed", "error", result.Error)
			return result
		}

		result.OutputFiles = append(result.OutputFiles, outputPath)
		c.logger.Info("wrote output", "format", w.Format(), "output", outputPath, "rows", len(ds.Records))
	}

	// =========================================================================
	// STEP 6: ARCHIVE
	// =========================================================================

	if !c.DryRun && c.files.InputArchiveDir != "" {
		result.ArchivePath = c.archive(ds, collector)
	}

	result.Success = true
	c.logger.Info("file converted",
		"rows", result.Stats.Rows,
		"header_source", ds.HeaderSource.String(),
		"dates_rewritten", dates.Rewritten,
		"outputs", len(result.OutputFiles))

	return result
}

// Load reads, resolves, normalizes and transforms the input file without
// writing anything.
//
// RETURNS:
//   - The transformed dataset.
//   - Date normalization counts.
//   - A *types.Error, or a transformation error.
func (c *Converter) Load(reporter diagnostics.Reporter) (*types.DatasetFile, DateStats, error) {
	content, err := c.files.ReadFile(c.inputPath)
	if err != nil {
		return nil, DateStats{}, types.NewError(types.CodeReadFailed, c.inputPath, err)
	}

	resolver := schema.NewResolver(c.files.Filesystem(), schema.OptionsFromConfig(c.cfg), reporter)
	ds, err := resolver.Resolve(c.inputPath, content)
	if err != nil {
		return nil, DateStats{}, err
	}
	c.logger.Debug("resolved schema",
		"header_source", ds.HeaderSource.String(),
		"fields", len(ds.Schema),
		"records", len(ds.Records))

	_, dates := NormalizeDates(ds.Schema, ds.Records, c.cfg.DatesEnabled(), reporter)

	transformer, err := NewTransformer(c.cfg.TransformationRules)
	if err != nil {
		return nil, dates, err
	}
	if err := transformer.Apply(ds.Records); err != nil {
		return nil, dates, fmt.Errorf("failed to apply transformations: %w", err)
	}

	return ds, dates, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// logPreview logs the schema and the first records at debug level.
func (c *Converter) logPreview(ds *types.DatasetFile) {
	if !c.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	c.logger.Debug("headers", "fields", []string(ds.Schema))
	n := min(c.cfg.PreviewRows, len(ds.Records))
	for i := 0; i < n; i++ {
		values, _ := ds.Row(i)
		c.logger.Debug("record", "row", ds.Records[i].Row, "values", values)
	}
}

// archive moves the input file, and its declaration when one was used, into
// the archive directory. Failures are reported, never fatal.
func (c *Converter) archive(ds *types.DatasetFile, reporter diagnostics.Reporter) string {
	archivePath, err := c.files.ArchiveInputFile(c.inputPath)
	if err != nil {
		reporter.Report(diagnostics.Diagnostic{
			Severity: diagnostics.SeverityWarning,
			Code:     diagnostics.CodeArchiveFailed,
			Message:  fmt.Sprintf("failed to archive input file: %v", err),
		})
		return ""
	}

	if ds.HeaderSource.Kind == types.HeaderFromDeclaration {
		if _, err := c.files.ArchiveInputFile(ds.HeaderSource.DeclarationPath); err != nil {
			reporter.Report(diagnostics.Diagnostic{
				Severity: diagnostics.SeverityWarning,
				Code:     diagnostics.CodeArchiveFailed,
				Message:  fmt.Sprintf("failed to archive declaration: %v", err),
				Value:    ds.HeaderSource.DeclarationPath,
			})
		}
	}

	return archivePath
}

// recordsOutsideSchema counts the records holding a key the schema does not
// name, such as the surplus cells of a row longer than its header.
func recordsOutsideSchema(ds *types.DatasetFile) int {
	n := 0
	for _, record := range ds.Records {
		for key := range record.Values {
			if !ds.Schema.Contains(key) {
				n++
				break
			}
		}
	}
	return n
}
