// =============================================================================
// Tabular Converter - Transformation Engine
// =============================================================================
//
// This module rewrites field values after schema resolution. Two stages run
// in order, both in place and neither adding nor removing keys:
//
//   1. Date normalization: fields whose name contains "date"
//      (case-insensitive) are rewritten from MM/DD/YYYY to YYYY-MM-DD.
//   2. Transformation rules: per-field action chains from the configuration.
//
// DATE OUTCOMES:
//   | Value           | Result         | Diagnostic                       |
//   |-----------------|----------------|----------------------------------|
//   | 03/17/2021      | 2021-03-17     | none                             |
//   | 2021-03-17      | unchanged      | DATE_ALREADY_CANONICAL (info)    |
//   | (empty)         | unchanged      | DATE_EMPTY (info)                |
//   | 3/17/2021, ...  | unchanged      | DATE_PARSE_FAILURE (warning)     |
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/csv-parquet-converter/internal/config"
	"github.com/ginjaninja78/csv-parquet-converter/internal/diagnostics"
	"github.com/ginjaninja78/csv-parquet-converter/internal/types"
)

const (
	// SourceDateLayout is the only accepted input layout: two-digit month and
	// day, four-digit year.
	SourceDateLayout = "01/02/2006"

	// CanonicalDateLayout is the output layout.
	CanonicalDateLayout = "2006-01-02"
)

// =============================================================================
// DATE NORMALIZATION
// =============================================================================

// DateOutcome classifies what happened to one date value.
type DateOutcome int

const (
	DateRewritten DateOutcome = iota
	DateCanonical
	DateEmpty
	DateUnparseable
)

// DateStats counts the outcomes of one normalization pass.
type DateStats struct {
	Rewritten   int
	Canonical   int
	Empty       int
	Unparseable int
}

// IsDateField reports whether a field qualifies for date normalization.
func IsDateField(name string) bool {
	return strings.Contains(strings.ToLower(name), "date")
}

// DateFields returns the qualifying fields of a schema, in schema order.
func DateFields(schema types.FieldSchema) []string {
	var fields []string
	for _, name := range schema {
		if IsDateField(name) {
			fields = append(fields, name)
		}
	}
	return fields
}

// StandardizeDate converts one MM/DD/YYYY value to YYYY-MM-DD.
// Any other value is returned unchanged with its outcome.
func StandardizeDate(value string) (string, DateOutcome) {
	if value == "" {
		return value, DateEmpty
	}
	if t, err := time.Parse(SourceDateLayout, value); err == nil {
		return t.Format(CanonicalDateLayout), DateRewritten
	}
	if _, err := time.Parse(CanonicalDateLayout, value); err == nil {
		return value, DateCanonical
	}
	return value, DateUnparseable
}

// NormalizeDates rewrites date-valued fields of every record in place.
//
// PARAMETERS:
//   - schema: The resolved FieldSchema; qualifying fields are taken from it.
//   - records: The records to rewrite.
//   - enabled: When false the records are returned untouched.
//   - reporter: Receives one diagnostic per value that was not rewritten.
//
// RETURNS:
//   - The same records slice.
//   - Outcome counts.
//
// Records lacking a qualifying key are skipped for that key.
func NormalizeDates(schema types.FieldSchema, records []types.Record, enabled bool, reporter diagnostics.Reporter) ([]types.Record, DateStats) {
	var stats DateStats
	if !enabled {
		return records, stats
	}
	if reporter == nil {
		reporter = diagnostics.Discard
	}

	fields := DateFields(schema)
	if len(fields) == 0 {
		return records, stats
	}

	for i := range records {
		record := &records[i]
		for _, field := range fields {
			value, ok := record.Values[field]
			if !ok {
				continue
			}

			normalized, outcome := StandardizeDate(value)
			switch outcome {
			case DateRewritten:
				record.Values[field] = normalized
				stats.Rewritten++
			case DateCanonical:
				stats.Canonical++
				reporter.Report(diagnostics.Diagnostic{
					Severity: diagnostics.SeverityInfo,
					Code:     diagnostics.CodeDateAlreadyCanonical,
					Message:  "date already in YYYY-MM-DD form",
					Row:      record.Row,
					Field:    field,
					Value:    value,
				})
			case DateEmpty:
				stats.Empty++
				reporter.Report(diagnostics.Diagnostic{
					Severity: diagnostics.SeverityInfo,
					Code:     diagnostics.CodeDateEmpty,
					Message:  "empty date value",
					Row:      record.Row,
					Field:    field,
				})
			default:
				stats.Unparseable++
				reporter.Report(diagnostics.Diagnostic{
					Severity: diagnostics.SeverityWarning,
					Code:     diagnostics.CodeDateParseFailure,
					Message:  fmt.Sprintf("invalid date format: %s", value),
					Row:      record.Row,
					Field:    field,
					Value:    value,
				})
			}
		}
	}

	return records, stats
}

// =============================================================================
// TRANSFORMATION RULES
// =============================================================================

// Transformer applies configured transformation rules to records.
type Transformer struct {
	rules   []config.TransformationRule
	regexes map[string]*regexp.Regexp
}

// NewTransformer creates a Transformer and compiles every regex pattern once.
func NewTransformer(rules []config.TransformationRule) (*Transformer, error) {
	t := &Transformer{
		rules:   rules,
		regexes: make(map[string]*regexp.Regexp),
	}

	for _, rule := range rules {
		for _, action := range rule.Actions {
			if action.Type != "regex_replace" {
				continue
			}
			if _, ok := t.regexes[action.Find]; ok {
				continue
			}
			re, err := regexp.Compile(action.Find)
			if err != nil {
				return nil, fmt.Errorf("invalid regex pattern for field '%s': %w", rule.Field, err)
			}
			t.regexes[action.Find] = re
		}
	}

	return t, nil
}

// Apply runs every rule over every record. Records lacking a rule's field
// are skipped for that rule.
func (t *Transformer) Apply(records []types.Record) error {
	if len(t.rules) == 0 {
		return nil
	}

	for i := range records {
		for _, rule := range t.rules {
			value, ok := records[i].Values[rule.Field]
			if !ok {
				continue
			}

			for _, action := range rule.Actions {
				var err error
				value, err = t.applyAction(value, action)
				if err != nil {
					return fmt.Errorf("failed to apply %s to field %s on row %d: %w",
						action.Type, rule.Field, records[i].Row, err)
				}
			}

			records[i].Values[rule.Field] = value
		}
	}

	return nil
}

func (t *Transformer) applyAction(value string, action config.TransformationAction) (string, error) {
	if action.Type == "regex_replace" {
		if re, ok := t.regexes[action.Find]; ok {
			return re.ReplaceAllString(value, action.Value), nil
		}
	}
	return ApplyTransformation(value, action)
}

// ApplyTransformation applies a single transformation action.
//
// EXAMPLES:
//   prepend_string "A"          "123456"   -> "A123456"
//   pad_zeros_to_length "8"     "123"      -> "00000123"
//   ensure_length "4"           "123456"   -> "1234"
//   replace find "-" value "_"  "a-b"      -> "a_b"
//   lookup {"01": "January"}    "01"       -> "January"
func ApplyTransformation(value string, action config.TransformationAction) (string, error) {
	switch action.Type {
	case "prepend_string":
		return action.Value + value, nil

	case "append_string":
		return value + action.Value, nil

	case "trim":
		return strings.TrimSpace(value), nil

	case "trim_left":
		if action.Value != "" {
			return strings.TrimLeft(value, action.Value), nil
		}
		return strings.TrimLeft(value, " \t\n\r"), nil

	case "trim_right":
		if action.Value != "" {
			return strings.TrimRight(value, action.Value), nil
		}
		return strings.TrimRight(value, " \t\n\r"), nil

	case "uppercase":
		return strings.ToUpper(value), nil

	case "lowercase":
		return strings.ToLower(value), nil

	case "replace":
		if action.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, action.Find, action.Value), nil

	case "regex_replace":
		re, err := regexp.Compile(action.Find)
		if err != nil {
			return "", fmt.Errorf("invalid regex pattern: %w", err)
		}
		return re.ReplaceAllString(value, action.Value), nil

	case "pad_zeros_to_length":
		targetLength, err := strconv.Atoi(action.Value)
		if err != nil || targetLength <= 0 {
			return value, nil
		}
		return PadLeft(value, targetLength, '0'), nil

	case "ensure_length":
		// Longer values are truncated from the right, shorter ones zero-padded.
		targetLength, err := strconv.Atoi(action.Value)
		if err != nil || targetLength <= 0 {
			return value, nil
		}
		runes := []rune(value)
		if len(runes) > targetLength {
			return string(runes[:targetLength]), nil
		}
		return PadLeft(value, targetLength, '0'), nil

	case "lookup":
		if replacement, exists := action.LookupTable[value]; exists {
			return replacement, nil
		}
		return value, nil

	default:
		return "", fmt.Errorf("unknown transformation type: %s", action.Type)
	}
}

// PadLeft pads a string with a character on the left to reach the target
// length in runes.
func PadLeft(s string, length int, padChar rune) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-n) + s
}
