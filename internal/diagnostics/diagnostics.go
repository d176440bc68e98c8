// =============================================================================
// Tabular Converter - Diagnostics
// =============================================================================
//
// This module provides the structured diagnostic sink used by the resolver and
// the transformer. Problems that must not stop processing (field anomalies,
// unparseable dates, skipped output formats, header sniff fallbacks) are
// reported here instead of being printed.
//
// DIAGNOSTIC FLOW:
//   1. A component calls Reporter.Report with a Diagnostic
//   2. The Collector stores it for the per-file Result
//   3. The Collector forwards it to slog at the matching level
//
// ERROR HANDLING:
//   - Diagnostics are collected, never thrown
//   - Each diagnostic carries file, row, field and value context
//   - Severity decides the log level, not whether processing continues
//
// =============================================================================

package diagnostics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// =============================================================================
// DIAGNOSTIC TYPES
// =============================================================================

// Severity of a diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Code identifies the kind of diagnostic.
type Code string

const (
	// CodeHeaderSniffFailed: header detection was inconclusive, the
	// declaration path is used instead.
	CodeHeaderSniffFailed Code = "HEADER_SNIFF_FAILED"

	// CodeFieldExtra: a record carries a field the schema does not declare.
	CodeFieldExtra Code = "FIELD_EXTRA"

	// CodeFieldMissing: a record lacks a field the schema declares.
	CodeFieldMissing Code = "FIELD_MISSING"

	// CodeDateParseFailure: a date field value does not match MM/DD/YYYY.
	CodeDateParseFailure Code = "DATE_PARSE_FAILURE"

	// CodeDateAlreadyCanonical: a date field value is already YYYY-MM-DD.
	CodeDateAlreadyCanonical Code = "DATE_ALREADY_CANONICAL"

	// CodeDateEmpty: a date field value is empty.
	CodeDateEmpty Code = "DATE_EMPTY"

	// CodeUnsupportedOutputFormat: a requested output format has no writer.
	CodeUnsupportedOutputFormat Code = "UNSUPPORTED_OUTPUT_FORMAT"

	// CodeArchiveFailed: the input could not be moved to the archive.
	CodeArchiveFailed Code = "ARCHIVE_FAILED"
)

// Diagnostic is one observation about the data being converted.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string

	// File is the input file the diagnostic refers to.
	File string

	// Row is the 1-based physical line, 0 when not row-specific.
	Row int

	// Field is the field name, empty when not field-specific.
	Field string

	// Value is the offending value, empty when not value-specific.
	Value string
}

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(string(d.Severity)), d.Code)
	if d.File != "" {
		fmt.Fprintf(&b, " %s", d.File)
	}
	if d.Row > 0 {
		fmt.Fprintf(&b, " row %d", d.Row)
	}
	if d.Field != "" {
		fmt.Fprintf(&b, " field '%s'", d.Field)
	}
	fmt.Fprintf(&b, ": %s", d.Message)
	if d.Value != "" {
		fmt.Fprintf(&b, " (value: '%s')", d.Value)
	}
	return b.String()
}

// =============================================================================
// REPORTER
// =============================================================================

// Reporter receives diagnostics.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(d Diagnostic)

// Report implements Reporter.
func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// Discard drops every diagnostic.
var Discard Reporter = ReporterFunc(func(Diagnostic) {})

// =============================================================================
// COLLECTOR
// =============================================================================

// Collector stores diagnostics and forwards them to a logger.
// It is safe for concurrent use.
type Collector struct {
	mu     sync.Mutex
	items  []Diagnostic
	logger *slog.Logger
	file   string
}

// NewCollector creates a Collector. A nil logger disables forwarding.
// When file is not empty it is filled into diagnostics that lack one.
func NewCollector(logger *slog.Logger, file string) *Collector {
	return &Collector{logger: logger, file: file}
}

// Report implements Reporter.
func (c *Collector) Report(d Diagnostic) {
	if d.File == "" {
		d.File = c.file
	}

	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()

	if c.logger == nil {
		return
	}
	attrs := []slog.Attr{slog.String("code", string(d.Code))}
	if d.Row > 0 {
		attrs = append(attrs, slog.Int("row", d.Row))
	}
	if d.Field != "" {
		attrs = append(attrs, slog.String("field", d.Field))
	}
	if d.Value != "" {
		attrs = append(attrs, slog.String("value", d.Value))
	}
	c.logger.LogAttrs(context.Background(), d.Severity.Level(), d.Message, attrs...)
}

// Diagnostics returns a copy of everything reported so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Count returns how many diagnostics with the given code were reported.
func (c *Collector) Count(code Code) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.items {
		if d.Code == code {
			n++
		}
	}
	return n
}

// Level maps a severity to a slog level.
func (s Severity) Level() slog.Level {
	switch s {
	case SeverityError:
		return slog.LevelError
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// =============================================================================
// FORMATTING
// =============================================================================

// Summarize counts diagnostics per code.
func Summarize(diags []Diagnostic) map[Code]int {
	counts := make(map[Code]int)
	for _, d := range diags {
		counts[d.Code]++
	}
	return counts
}

// FormatSummary renders Summarize output sorted by code, e.g.
// "DATE_PARSE_FAILURE=2 FIELD_EXTRA=1".
func FormatSummary(diags []Diagnostic) string {
	counts := Summarize(diags)
	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)

	parts := make([]string, len(codes))
	for i, code := range codes {
		parts[i] = fmt.Sprintf("%s=%d", code, counts[Code(code)])
	}
	return strings.Join(parts, " ")
}

// FormatDiagnostics renders diagnostics as a human-readable block.
func FormatDiagnostics(diags []Diagnostic) string {
	if len(diags) == 0 {
		return "No diagnostics."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Diagnostics (%d):\n", len(diags))
	for _, d := range diags {
		b.WriteString("  ")
		b.WriteString(d.String())
		b.WriteString("\n")
	}
	return b.String()
}
