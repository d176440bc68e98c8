// =============================================================================
// Tabular Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (converter)
//   ├── processCmd  (converter process)
//   ├── previewCmd  (converter preview)
//   ├── validateCmd (converter validate)
//   └── versionCmd  (converter version)
//
// The root command owns the global flags and the shared setup: loading the
// configuration, applying command-line overrides, validating, and building
// the logger.
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csv-parquet-converter/internal/config"
	"github.com/ginjaninja78/csv-parquet-converter/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// Empty means built-in defaults.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// logFormat overrides the configured log format ("text" or "json").
var logFormat string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "converter",
	Short: "Tabular Converter - Convert delimited text files to CSV, Parquet and XLSX",
	Long: `Tabular Converter reads a directory of delimited text files and writes each
one to an output directory in one or more target formats.

Key Features:
  - Header detection, with sidecar schema declarations for headerless files
  - Field anomaly diagnostics (extra / missing fields per row)
  - MM/DD/YYYY to YYYY-MM-DD normalization of date fields
  - CSV, Parquet and XLSX output
  - Configurable field transformation rules

Example Usage:
  converter process                          # Convert every file in the input directory
  converter process --format "csv|parquet"   # Write both CSV and Parquet
  converter preview ./input/b.csv            # Show the resolved schema and first rows
  converter validate --config ./my.yaml      # Validate configuration without processing`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the main configuration file (defaults are used when empty)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&logFormat,
		"log-format",
		"",
		"Log format: text or json (overrides log_format)",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig loads the configuration file, applies the command's overrides
// and validates the result.
func loadConfig(overrides func(cfg *config.MainConfig)) (*config.MainConfig, error) {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	if overrides != nil {
		overrides(cfg)
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from the configuration.
func newLogger(cfg *config.MainConfig) *slog.Logger {
	return logging.Init(os.Stderr, cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))
}

// absolutePaths rewrites the configured directories as absolute paths, as
// required by the filesystem rooted at "/".
func absolutePaths(cfg *config.MainConfig) error {
	for _, dir := range []*string{&cfg.InputDir, &cfg.OutputDir, &cfg.InputArchiveDir} {
		if *dir == "" {
			continue
		}
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", *dir, err)
		}
		*dir = abs
	}
	return nil
}
