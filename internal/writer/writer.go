// =============================================================================
// Tabular Converter - Output Writers
// =============================================================================
//
// This module serializes a resolved DatasetFile into the requested output
// formats. Every writer emits the same logical content:
//
//   - Columns are the FieldSchema, in schema order.
//   - One row per record, in record order.
//   - A schema key absent from a record is written as an empty / null cell.
//   - Record keys outside the schema (extra fields) are not written.
//
// FORMATS:
//   | Name    | Extension | Notes                                        |
//   |---------|-----------|----------------------------------------------|
//   | csv     | .csv      | header line, comma separated                 |
//   | parquet | .parquet  | nullable UTF-8 columns, schema embedded      |
//   | xlsx    | .xlsx     | sheet "data", row 1 holds the field names    |
//
// =============================================================================

package writer

import (
	"io"
	"sort"
	"strings"

	"github.com/ginjaninja78/csv-parquet-converter/internal/types"
)

// Writer serializes one dataset in one format.
type Writer interface {
	// Format is the name used in configuration, e.g. "parquet".
	Format() string

	// Extension is the output file extension including the dot.
	Extension() string

	// Write serializes ds to w.
	Write(w io.Writer, ds *types.DatasetFile) error
}

// =============================================================================
// REGISTRY
// =============================================================================

var registry = map[string]Writer{}

func register(w Writer) {
	registry[w.Format()] = w
}

func init() {
	register(CSVWriter{})
	register(ParquetWriter{})
	register(XLSXWriter{})
}

// Lookup returns the writer for a format name (case-insensitive).
//
// RETURNS:
//   - The writer.
//   - types.ErrUnsupportedOutputFormat if no writer has that name.
func Lookup(format string) (Writer, error) {
	w, ok := registry[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, types.Errorf(types.CodeUnsupportedOutputFormat, "",
			"unsupported output format %q (supported: %s)", format, strings.Join(Formats(), ", "))
	}
	return w, nil
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseFormats flattens format selectors into a list of names.
// Each entry may hold several names joined by "|" or ",", e.g. "csv|parquet".
// Names are lowercased; duplicates and empty names are dropped.
func ParseFormats(entries []string) []string {
	seen := make(map[string]bool)
	var formats []string

	for _, entry := range entries {
		parts := strings.FieldsFunc(entry, func(r rune) bool {
			return r == '|' || r == ','
		})
		for _, part := range parts {
			name := strings.ToLower(strings.TrimSpace(part))
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			formats = append(formats, name)
		}
	}

	return formats
}
