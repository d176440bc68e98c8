// =============================================================================
// Tabular Converter - Shared Types
// =============================================================================
//
// This package contains the data model shared by every stage of the
// conversion pipeline. Types defined here are used by:
//   - csvparser   (raw rows -> records)
//   - schema      (header / declaration resolution)
//   - converter   (date normalization, field transformations)
//   - writer      (csv, parquet and xlsx serialization)
//
// =============================================================================

package types

import "fmt"

// =============================================================================
// FIELD SCHEMA
// =============================================================================

// FieldSchema is the ordered list of field names for one input file.
// It is resolved once per file and never modified afterwards.
type FieldSchema []string

// Contains reports whether the schema declares the given field name.
func (s FieldSchema) Contains(name string) bool {
	for _, field := range s {
		if field == name {
			return true
		}
	}
	return false
}

// =============================================================================
// RECORD
// =============================================================================

// Record is a single data row keyed by field name.
// All values are text at this stage; type coercion is left to the writers.
type Record struct {
	// Row is the 1-based physical line of the row in the input file.
	// Only used for diagnostics.
	Row int

	// Values maps field name to raw value.
	// The key set normally equals the FieldSchema but may be a superset
	// (row longer than the schema) or a subset (row shorter than the schema).
	Values map[string]string
}

// Get returns the value for a field and whether the record carries it.
func (r Record) Get(field string) (string, bool) {
	value, ok := r.Values[field]
	return value, ok
}

// =============================================================================
// HEADER SOURCE
// =============================================================================

// HeaderSourceKind tells where the field names of a file came from.
type HeaderSourceKind int

const (
	// HeaderDetected means the first physical row of the file is the header.
	HeaderDetected HeaderSourceKind = iota

	// HeaderFromDeclaration means the names come from a sidecar declaration
	// and every physical row is data.
	HeaderFromDeclaration
)

// String implements fmt.Stringer.
func (k HeaderSourceKind) String() string {
	switch k {
	case HeaderDetected:
		return "header"
	case HeaderFromDeclaration:
		return "declaration"
	default:
		return fmt.Sprintf("HeaderSourceKind(%d)", int(k))
	}
}

// HeaderSource is decided once per file and threaded through resolution.
type HeaderSource struct {
	Kind HeaderSourceKind

	// DeclarationPath is set when Kind is HeaderFromDeclaration.
	DeclarationPath string
}

// Detected returns the header source for a file that carries its own header.
func Detected() HeaderSource {
	return HeaderSource{Kind: HeaderDetected}
}

// FromDeclaration returns the header source for a headerless file.
func FromDeclaration(path string) HeaderSource {
	return HeaderSource{Kind: HeaderFromDeclaration, DeclarationPath: path}
}

// String implements fmt.Stringer.
func (h HeaderSource) String() string {
	if h.Kind == HeaderFromDeclaration {
		return fmt.Sprintf("declaration(%s)", h.DeclarationPath)
	}
	return h.Kind.String()
}

// =============================================================================
// DATASET FILE
// =============================================================================

// DatasetFile is the unit of work: one input path, its resolved schema and
// its records. It lives only for the duration of one file's conversion.
type DatasetFile struct {
	// Path is the input file path.
	Path string

	// Schema is the resolved field order.
	Schema FieldSchema

	// Records holds the data rows in file order.
	Records []Record

	// HeaderSource records how Schema was obtained.
	HeaderSource HeaderSource
}

// Row returns the values of a record in schema order.
// Fields absent from the record are reported through the present slice.
func (d *DatasetFile) Row(index int) (values []string, present []bool) {
	record := d.Records[index]
	values = make([]string, len(d.Schema))
	present = make([]bool, len(d.Schema))
	for i, field := range d.Schema {
		values[i], present[i] = record.Values[field]
	}
	return values, present
}
