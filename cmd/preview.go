// =============================================================================
// Tabular Converter - Preview Command
// =============================================================================
//
// COMMAND USAGE:
//   converter preview [file...] [flags]
//
// Resolves and normalizes each file exactly as 'process' would, then prints
// the header source, the schema, the first rows and the diagnostics. Nothing
// is written. Without arguments every input file of the input directory is
// previewed.
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csv-parquet-converter/internal/config"
	"github.com/ginjaninja78/csv-parquet-converter/internal/converter"
	"github.com/ginjaninja78/csv-parquet-converter/internal/diagnostics"
	"github.com/ginjaninja78/csv-parquet-converter/pkg/utils"
)

var (
	previewInput      string
	previewHeaderMode string
	previewRows       int
)

var previewCmd = &cobra.Command{
	Use:   "preview [file...]",
	Short: "Show the resolved schema and first rows of input files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreview(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVar(&previewInput, "input", "", "Input directory (overrides input_dir)")
	previewCmd.Flags().StringVar(&previewHeaderMode, "header-mode", "", "Header handling: detect, present or absent")
	previewCmd.Flags().IntVar(&previewRows, "rows", 0, "Number of rows to show (overrides preview_rows)")
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(func(cfg *config.MainConfig) {
		if previewInput != "" {
			cfg.InputDir = previewInput
		}
		if previewHeaderMode != "" {
			cfg.HeaderMode = config.ParseHeaderMode(previewHeaderMode)
		}
		if previewRows > 0 {
			cfg.PreviewRows = previewRows
		}
	})
	if err != nil {
		return err
	}
	if err := absolutePaths(cfg); err != nil {
		return err
	}

	logger := newLogger(cfg)
	files := utils.NewFileManager(osfs.New("/"), cfg.InputDir, cfg.OutputDir, "")

	inputs := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", arg, err)
		}
		inputs = append(inputs, abs)
	}
	if len(inputs) == 0 {
		inputs, err = files.DiscoverInputFiles(cfg.InputExtension)
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	failures := 0
	for _, input := range inputs {
		collector := diagnostics.NewCollector(nil, input)
		ds, _, err := converter.New(input, cfg, files, logger).Load(collector)
		if err != nil {
			failures++
			fmt.Fprintf(out, "✗ %s: %v\n\n", input, err)
			continue
		}

		fmt.Fprint(out, converter.FormatPreview(ds, cfg.PreviewRows))
		fmt.Fprintf(out, "\n%s\n\n", diagnostics.FormatDiagnostics(collector.Diagnostics()))
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d file(s) could not be resolved", failures, len(inputs))
	}
	return nil
}
