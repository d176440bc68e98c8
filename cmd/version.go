// =============================================================================
// Tabular Converter - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   converter version
//
// OUTPUT:
//   Tabular Converter
//   Version:    1.0.0
//   Build Date: unknown
//   Go Version: go1.23.0
//   Formats:    csv, parquet, xlsx
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csv-parquet-converter/internal/writer"
)

// Set at build time:
//   go build -ldflags "-X 'github.com/ginjaninja78/csv-parquet-converter/cmd.Version=1.1.0'"

// Version is the application version.
var Version = "1.0.0"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the application version, build date, Go runtime version and the supported output formats.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Tabular Converter")
		fmt.Fprintf(out, "Version:    %s\n", Version)
		fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
		fmt.Fprintf(out, "Formats:    %s\n", strings.Join(writer.Formats(), ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
