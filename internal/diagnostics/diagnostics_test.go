package diagnostics

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorStoresAndFillsFile(t *testing.T) {
	c := NewCollector(nil, "/in/a.csv")
	c.Report(Diagnostic{Severity: SeverityWarning, Code: CodeFieldExtra, Message: "extra field", Field: "Column_3", Row: 2})
	c.Report(Diagnostic{Severity: SeverityInfo, Code: CodeDateEmpty, Message: "empty", File: "/other.csv"})

	diags := c.Diagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t, "/in/a.csv", diags[0].File)
	assert.Equal(t, "/other.csv", diags[1].File)
	assert.Equal(t, 1, c.Count(CodeFieldExtra))
	assert.Equal(t, 0, c.Count(CodeFieldMissing))
}

func TestCollectorForwardsToLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := NewCollector(logger, "")
	c.Report(Diagnostic{
		Severity: SeverityWarning,
		Code:     CodeDateParseFailure,
		Message:  "invalid date format",
		Row:      3,
		Field:    "signup_date",
		Value:    "13/40/2020",
	})

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "code=DATE_PARSE_FAILURE")
	assert.Contains(t, out, "row=3")
	assert.Contains(t, out, "field=signup_date")
	assert.Contains(t, out, "value=13/40/2020")
}

func TestCollectorConcurrentReports(t *testing.T) {
	c := NewCollector(nil, "")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Report(Diagnostic{Severity: SeverityInfo, Code: CodeDateEmpty})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, c.Count(CodeDateEmpty))
}

func TestSeverityLevel(t *testing.T) {
	assert.Equal(t, slog.LevelError, SeverityError.Level())
	assert.Equal(t, slog.LevelWarn, SeverityWarning.Level())
	assert.Equal(t, slog.LevelInfo, SeverityInfo.Level())
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityWarning,
		Code:     CodeDateParseFailure,
		Message:  "invalid date format",
		File:     "a.csv",
		Row:      3,
		Field:    "signup_date",
		Value:    "13/40/2020",
	}

	assert.Equal(t,
		"[WARNING] DATE_PARSE_FAILURE a.csv row 3 field 'signup_date': invalid date format (value: '13/40/2020')",
		d.String())
}

func TestFormatSummarySortedByCode(t *testing.T) {
	diags := []Diagnostic{
		{Code: CodeFieldExtra},
		{Code: CodeDateParseFailure},
		{Code: CodeDateParseFailure},
	}

	assert.Equal(t, "DATE_PARSE_FAILURE=2 FIELD_EXTRA=1", FormatSummary(diags))
	assert.Equal(t, "", FormatSummary(nil))
}

func TestFormatDiagnostics(t *testing.T) {
	assert.Equal(t, "No diagnostics.", FormatDiagnostics(nil))

	out := FormatDiagnostics([]Diagnostic{{Severity: SeverityInfo, Code: CodeDateEmpty, Message: "empty date value"}})
	assert.True(t, strings.HasPrefix(out, "Diagnostics (1):\n"))
	assert.Contains(t, out, "[INFO] DATE_EMPTY: empty date value")
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard.Report(Diagnostic{Code: CodeFieldMissing})
	})
}
