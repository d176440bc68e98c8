// =============================================================================
// Tabular Converter - Main Entry Point
// =============================================================================
//
// Entry point for the converter CLI. Command execution is delegated to the
// cmd package.
//
// USAGE:
//   converter process       - Convert every input file of the input directory
//   converter preview       - Show the resolved schema and first rows
//   converter validate      - Validate the configuration without processing
//   converter version       - Display the application version
//
// LAYOUT:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : parsing, schema resolution, conversion and writers
//   - pkg/           : file management and run reports
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/csv-parquet-converter/cmd"
)

func main() {
	cmd.Execute()
}
