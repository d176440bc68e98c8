// =============================================================================
// Tabular Converter - Schema Resolver
// =============================================================================
//
// The resolver decides, once per input file, where the field names come from
// and keys every data row by them.
//
// RESOLUTION:
//   1. Decode the content to UTF-8
//   2. Decide the HeaderSource (detect / present / absent)
//   3. Header:      first row -> FieldSchema, remaining rows -> Records
//      Declaration: declaration keys -> FieldSchema, every row -> Records,
//                   extra / missing fields reported per record
//
// A header sniff that cannot classify the file is not an error: it is
// reported and the declaration path is taken.
//
// =============================================================================

package schema

import (
	"fmt"
	"sort"

	"github.com/go-git/go-billy/v5"

	"github.com/ginjaninja78/csv-parquet-converter/internal/config"
	"github.com/ginjaninja78/csv-parquet-converter/internal/csvparser"
	"github.com/ginjaninja78/csv-parquet-converter/internal/diagnostics"
	"github.com/ginjaninja78/csv-parquet-converter/internal/types"
)

// Options controls resolution.
type Options struct {
	HeaderMode           config.HeaderMode
	SniffBytes           int
	DeclarationExtension string
	CSV                  config.CSVSettings
}

// OptionsFromConfig extracts resolver options from the main configuration.
func OptionsFromConfig(cfg *config.MainConfig) Options {
	return Options{
		HeaderMode:           cfg.HeaderMode,
		SniffBytes:           cfg.SniffBytes,
		DeclarationExtension: cfg.DeclarationExtension,
		CSV:                  cfg.CSVSettings,
	}
}

// Resolver produces a DatasetFile from one input file's content.
type Resolver struct {
	fs       billy.Filesystem
	opts     Options
	reporter diagnostics.Reporter
}

// NewResolver creates a Resolver. Declarations are read from fs.
func NewResolver(fs billy.Filesystem, opts Options, reporter diagnostics.Reporter) *Resolver {
	if reporter == nil {
		reporter = diagnostics.Discard
	}
	return &Resolver{fs: fs, opts: opts, reporter: reporter}
}

// Resolve determines the FieldSchema of the file at path and parses its rows.
//
// PARAMETERS:
//   - path: The input path; the declaration path is derived from it.
//   - content: The raw file content.
//
// RETURNS:
//   - The DatasetFile with schema, records and header source.
//   - A *types.Error for SchemaNotFound, DeclarationMalformed, EmptyInput,
//     DecodeFailed or ReadFailed.
func (r *Resolver) Resolve(path string, content []byte) (*types.DatasetFile, error) {
	decoded, err := csvparser.Decode(content, r.opts.CSV)
	if err != nil {
		return nil, types.NewError(types.CodeDecodeFailed, path, err)
	}

	source := r.HeaderSource(path, decoded)

	rows, err := csvparser.ReadRows(decoded, r.opts.CSV)
	if err != nil {
		return nil, types.NewError(types.CodeReadFailed, path, err)
	}

	if source.Kind == types.HeaderDetected {
		return r.fromHeader(path, rows)
	}
	return r.fromDeclaration(path, source, rows)
}

// HeaderSource decides where the field names of the file come from.
// decoded must already be UTF-8.
func (r *Resolver) HeaderSource(path string, decoded []byte) types.HeaderSource {
	declaration := types.FromDeclaration(DeclarationPath(path, r.opts.DeclarationExtension))

	switch r.opts.HeaderMode {
	case config.HeaderModePresent:
		return types.Detected()
	case config.HeaderModeAbsent:
		return declaration
	}

	hasHeader, err := csvparser.HasHeader(csvparser.Sample(decoded, r.opts.SniffBytes), r.opts.CSV)
	if err != nil {
		r.reporter.Report(diagnostics.Diagnostic{
			Severity: diagnostics.SeverityWarning,
			Code:     diagnostics.CodeHeaderSniffFailed,
			Message:  fmt.Sprintf("could not sniff header, defaulting to no header: %v", err),
			File:     path,
		})
		return declaration
	}

	if hasHeader {
		return types.Detected()
	}
	return declaration
}

// fromHeader uses the first row as the schema.
func (r *Resolver) fromHeader(path string, rows []csvparser.RawRow) (*types.DatasetFile, error) {
	if len(rows) == 0 {
		return nil, types.Errorf(types.CodeEmptyInput, path, "file has no header row")
	}

	schema := csvparser.HeaderNames(rows[0].Fields)
	return &types.DatasetFile{
		Path:         path,
		Schema:       schema,
		Records:      csvparser.BuildRecords(rows[1:], schema),
		HeaderSource: types.Detected(),
	}, nil
}

// fromDeclaration loads the sidecar declaration and treats every row as data.
func (r *Resolver) fromDeclaration(path string, source types.HeaderSource, rows []csvparser.RawRow) (*types.DatasetFile, error) {
	schema, err := LoadDeclaration(r.fs, source.DeclarationPath)
	if err != nil {
		return nil, err
	}

	records := make([]types.Record, 0, len(rows))
	for _, row := range rows {
		record := csvparser.BuildRecord(row, schema)
		r.reportAnomalies(path, record, schema)
		records = append(records, record)
	}

	return &types.DatasetFile{
		Path:         path,
		Schema:       schema,
		Records:      records,
		HeaderSource: source,
	}, nil
}

// reportAnomalies compares one record's key set with the schema.
func (r *Resolver) reportAnomalies(path string, record types.Record, schema types.FieldSchema) {
	for _, key := range extraKeys(record, schema) {
		r.reporter.Report(diagnostics.Diagnostic{
			Severity: diagnostics.SeverityWarning,
			Code:     diagnostics.CodeFieldExtra,
			Message:  fmt.Sprintf("extra field '%s' found in the data", key),
			File:     path,
			Row:      record.Row,
			Field:    key,
			Value:    record.Values[key],
		})
	}

	for _, field := range schema {
		if _, ok := record.Values[field]; ok {
			continue
		}
		r.reporter.Report(diagnostics.Diagnostic{
			Severity: diagnostics.SeverityWarning,
			Code:     diagnostics.CodeFieldMissing,
			Message:  fmt.Sprintf("missing field '%s' in the data", field),
			File:     path,
			Row:      record.Row,
			Field:    field,
		})
	}
}

// extraKeys returns the record keys absent from the schema, so that
// Column_3 sorts before Column_10.
func extraKeys(record types.Record, schema types.FieldSchema) []string {
	var extra []string
	for key := range record.Values {
		if !schema.Contains(key) {
			extra = append(extra, key)
		}
	}
	sort.Slice(extra, func(i, j int) bool {
		if len(extra[i]) != len(extra[j]) {
			return len(extra[i]) < len(extra[j])
		}
		return extra[i] < extra[j]
	})
	return extra
}
