// =============================================================================
// Tabular Converter - CSV Parser Module
// =============================================================================
//
// This module turns the raw bytes of one delimited text file into rows and
// records. It handles:
//   - Character set decoding (UTF-8 with BOM, UTF-16, ISO-8859-1, Windows-1252)
//   - Configurable delimiters and lazy quoting
//   - Rows of uneven length
//   - Keyed records built from a resolved FieldSchema
//
// The whole file is materialized in memory; there is no streaming mode.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/ginjaninja78/csv-parquet-converter/internal/config"
	"github.com/ginjaninja78/csv-parquet-converter/internal/types"
)

// =============================================================================
// RAW ROW STRUCTURE
// =============================================================================

// RawRow is one parsed physical row.
type RawRow struct {
	// Line is the 1-based line where the row starts.
	Line int

	// Fields holds the cell values in column order.
	Fields []string
}

// =============================================================================
// DECODING
// =============================================================================

// Decode converts content from the configured encoding to UTF-8.
// A UTF-8 byte order mark is removed.
func Decode(content []byte, settings config.CSVSettings) ([]byte, error) {
	enc, err := lookupEncoding(settings.Encoding)
	if err != nil {
		return nil, err
	}

	out, err := enc.NewDecoder().Bytes(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s content: %w", settings.Encoding, err)
	}
	return out, nil
}

// lookupEncoding maps a configured encoding name to an x/text encoding.
func lookupEncoding(name string) (encoding.Encoding, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "_", "-"))
	switch normalized {
	case "", "UTF-8", "UTF8":
		return unicode.UTF8BOM, nil
	case "UTF-16", "UTF16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return charmap.ISO8859_1, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ReadRows parses decoded content into rows.
//
// PARAMETERS:
//   - content: UTF-8 delimited text.
//   - settings: The CSV settings from the configuration.
//
// RETURNS:
//   - Every row in file order, each with its starting line. Blank lines are
//     skipped by the reader; a row of empty cells such as ",," is kept.
//   - An error if the content is not valid delimited text.
func ReadRows(content []byte, settings config.CSVSettings) ([]RawRow, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	configureReader(reader, settings)

	var rows []RawRow
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		line, _ := reader.FieldPos(0)

		if settings.TrimSpaces {
			for i := range fields {
				fields[i] = strings.TrimSpace(fields[i])
			}
		}

		rows = append(rows, RawRow{Line: line, Fields: fields})
	}

	return rows, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	reader.Comma = settings.Comma()

	// Rows of uneven length are reported as field anomalies, not rejected.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = settings.Lazy()
	reader.TrimLeadingSpace = settings.TrimSpaces
}

// HeaderNames cleans a header row into field names.
// Names are trimmed; empty names become "Column_<n>".
func HeaderNames(row []string) types.FieldSchema {
	names := make(types.FieldSchema, len(row))
	for i, name := range row {
		name = strings.TrimSpace(name)
		if name == "" {
			name = ColumnName(i)
		}
		names[i] = name
	}
	return names
}

// ColumnName returns the generated name for the zero-based column index.
func ColumnName(index int) string {
	return fmt.Sprintf("Column_%d", index+1)
}

// BuildRecord keys one row by the schema.
//
// A row longer than the schema keeps the surplus values under generated
// "Column_<n>" keys; a row shorter than the schema leaves the trailing
// schema keys absent.
func BuildRecord(row RawRow, schema types.FieldSchema) types.Record {
	values := make(map[string]string, len(row.Fields))
	for i, value := range row.Fields {
		if i < len(schema) {
			values[schema[i]] = value
			continue
		}
		values[ColumnName(i)] = value
	}
	return types.Record{Row: row.Line, Values: values}
}

// BuildRecords keys every row by the schema.
func BuildRecords(rows []RawRow, schema types.FieldSchema) []types.Record {
	records := make([]types.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, BuildRecord(row, schema))
	}
	return records
}
