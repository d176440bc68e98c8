package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/csv-parquet-converter/internal/config"
	"github.com/ginjaninja78/csv-parquet-converter/internal/diagnostics"
	"github.com/ginjaninja78/csv-parquet-converter/internal/types"
)

func dateRecords() []types.Record {
	return []types.Record{
		{Row: 2, Values: map[string]string{"id": "1", "signup_date": "01/05/2020"}},
		{Row: 3, Values: map[string]string{"id": "2", "signup_date": "13/40/2020"}},
	}
}

func TestStandardizeDate(t *testing.T) {
	tests := []struct {
		value   string
		want    string
		outcome DateOutcome
	}{
		{"03/17/2021", "2021-03-17", DateRewritten},
		{"12/31/1999", "1999-12-31", DateRewritten},
		{"02/29/2020", "2020-02-29", DateRewritten},
		{"3/17/2021", "3/17/2021", DateUnparseable},
		{"03/7/2021", "03/7/2021", DateUnparseable},
		{"03/17/21", "03/17/21", DateUnparseable},
		{"02/29/2021", "02/29/2021", DateUnparseable},
		{"13/40/2020", "13/40/2020", DateUnparseable},
		{" 03/17/2021", " 03/17/2021", DateUnparseable},
		{"not a date", "not a date", DateUnparseable},
		{"2021-03-17", "2021-03-17", DateCanonical},
		{"", "", DateEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, outcome := StandardizeDate(tt.value)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.outcome, outcome)
		})
	}
}

func TestIsDateField(t *testing.T) {
	assert.True(t, IsDateField("signup_date"))
	assert.True(t, IsDateField("DateOfBirth"))
	assert.True(t, IsDateField("UPDATED"))
	assert.False(t, IsDateField("id"))
	assert.Equal(t, []string{"birth_date", "Updated"}, DateFields(types.FieldSchema{"id", "birth_date", "Updated"}))
}

func TestNormalizeDates(t *testing.T) {
	collector := diagnostics.NewCollector(nil, "a.csv")
	records := dateRecords()

	out, stats := NormalizeDates(types.FieldSchema{"id", "signup_date"}, records, true, collector)

	assert.Equal(t, "2020-01-05", out[0].Values["signup_date"])
	assert.Equal(t, "13/40/2020", out[1].Values["signup_date"])
	assert.Equal(t, "1", out[0].Values["id"])
	assert.Equal(t, DateStats{Rewritten: 1, Unparseable: 1}, stats)

	diags := collector.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostics.CodeDateParseFailure, diags[0].Code)
	assert.Equal(t, diagnostics.SeverityWarning, diags[0].Severity)
	assert.Equal(t, "13/40/2020", diags[0].Value)
	assert.Equal(t, "signup_date", diags[0].Field)
	assert.Equal(t, 3, diags[0].Row)
}

func TestNormalizeDatesDisabled(t *testing.T) {
	collector := diagnostics.NewCollector(nil, "")
	records := dateRecords()

	out, stats := NormalizeDates(types.FieldSchema{"id", "signup_date"}, records, false, collector)

	assert.Equal(t, dateRecords(), out)
	assert.Equal(t, DateStats{}, stats)
	assert.Empty(t, collector.Diagnostics())
}

func TestNormalizeDatesIsIdempotent(t *testing.T) {
	schema := types.FieldSchema{"id", "signup_date"}
	records := dateRecords()

	once, _ := NormalizeDates(schema, records, true, nil)
	snapshot := []map[string]string{
		{"id": "1", "signup_date": once[0].Values["signup_date"]},
		{"id": "2", "signup_date": once[1].Values["signup_date"]},
	}

	twice, stats := NormalizeDates(schema, once, true, nil)
	assert.Equal(t, snapshot[0], twice[0].Values)
	assert.Equal(t, snapshot[1], twice[1].Values)
	assert.Equal(t, 0, stats.Rewritten)
	assert.Equal(t, 1, stats.Canonical)
}

func TestNormalizeDatesOneDiagnosticPerValue(t *testing.T) {
	collector := diagnostics.NewCollector(nil, "")
	records := []types.Record{
		{Row: 1, Values: map[string]string{"start_date": "2021-03-17", "end_date": ""}},
		{Row: 2, Values: map[string]string{"start_date": "soon"}},
	}

	_, stats := NormalizeDates(types.FieldSchema{"start_date", "end_date"}, records, true, collector)

	assert.Equal(t, DateStats{Canonical: 1, Empty: 1, Unparseable: 1}, stats)
	assert.Equal(t, 1, collector.Count(diagnostics.CodeDateAlreadyCanonical))
	assert.Equal(t, 1, collector.Count(diagnostics.CodeDateEmpty))
	assert.Equal(t, 1, collector.Count(diagnostics.CodeDateParseFailure))
	assert.Len(t, collector.Diagnostics(), 3)

	// Normalization never adds keys.
	_, ok := records[1].Values["end_date"]
	assert.False(t, ok)
}

func TestApplyTransformation(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		action config.TransformationAction
		want   string
	}{
		{"prepend", "123456", config.TransformationAction{Type: "prepend_string", Value: "A"}, "A123456"},
		{"append", "123456", config.TransformationAction{Type: "append_string", Value: "-00"}, "123456-00"},
		{"trim", "  x  ", config.TransformationAction{Type: "trim"}, "x"},
		{"trim left chars", "000123", config.TransformationAction{Type: "trim_left", Value: "0"}, "123"},
		{"trim right", "abc \t", config.TransformationAction{Type: "trim_right"}, "abc"},
		{"uppercase", "abc", config.TransformationAction{Type: "uppercase"}, "ABC"},
		{"lowercase", "ABC", config.TransformationAction{Type: "lowercase"}, "abc"},
		{"replace", "hello-world", config.TransformationAction{Type: "replace", Find: "-", Value: "_"}, "hello_world"},
		{"regex replace", "ABC-123-DEF", config.TransformationAction{Type: "regex_replace", Find: "[A-Z]+", Value: "X"}, "X-123-X"},
		{"pad zeros", "123", config.TransformationAction{Type: "pad_zeros_to_length", Value: "8"}, "00000123"},
		{"ensure length truncates", "12345678901234", config.TransformationAction{Type: "ensure_length", Value: "10"}, "1234567890"},
		{"ensure length pads", "123", config.TransformationAction{Type: "ensure_length", Value: "5"}, "00123"},
		{"lookup hit", "01", config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"01": "January"}}, "January"},
		{"lookup miss", "13", config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"01": "January"}}, "13"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyTransformation(tt.value, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ApplyTransformation("x", config.TransformationAction{Type: "explode"})
	assert.ErrorContains(t, err, "unknown transformation type")
}

func TestTransformerApply(t *testing.T) {
	transformer, err := NewTransformer([]config.TransformationRule{
		{Field: "policy", Actions: []config.TransformationAction{
			{Type: "trim"},
			{Type: "pad_zeros_to_length", Value: "6"},
			{Type: "prepend_string", Value: "A"},
		}},
		{Field: "code", Actions: []config.TransformationAction{
			{Type: "regex_replace", Find: `\D`, Value: ""},
		}},
	})
	require.NoError(t, err)

	records := []types.Record{
		{Row: 1, Values: map[string]string{"policy": " 123 ", "code": "A-1-B-2"}},
		{Row: 2, Values: map[string]string{"code": "77"}},
	}
	require.NoError(t, transformer.Apply(records))

	assert.Equal(t, map[string]string{"policy": "A000123", "code": "12"}, records[0].Values)
	assert.Equal(t, map[string]string{"code": "77"}, records[1].Values)
}

func TestNewTransformerRejectsBadRegex(t *testing.T) {
	_, err := NewTransformer([]config.TransformationRule{
		{Field: "x", Actions: []config.TransformationAction{{Type: "regex_replace", Find: "("}}},
	})
	assert.ErrorContains(t, err, "invalid regex pattern")
}
