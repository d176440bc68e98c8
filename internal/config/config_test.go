package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "./input", cfg.InputDir)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, ".csv", cfg.InputExtension)
	assert.Equal(t, ".json", cfg.DeclarationExtension)
	assert.Equal(t, []string{"csv"}, cfg.OutputFormats)
	assert.Equal(t, HeaderModeDetect, cfg.HeaderMode)
	assert.True(t, cfg.DatesEnabled())
	assert.True(t, cfg.KeepGoing())
	assert.Equal(t, 10240, cfg.SniffBytes)
	assert.Equal(t, 5, cfg.PreviewRows)
	assert.Equal(t, 1, cfg.MaxConcurrency)
	assert.Equal(t, ',', cfg.CSVSettings.Comma())
	assert.True(t, cfg.CSVSettings.Lazy())
	require.NoError(t, cfg.Validate())
}

func TestLoadMainConfigEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadMainConfig("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMainConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "converter.yaml")
	content := `
input_dir: /data/in
output_dir: /data/out
declaration_extension: yaml
output_formats: ["csv|parquet", xlsx]
header_mode: ABSENT
standardize_dates: false
continue_on_error: false
csv_settings:
  delimiter: pipe
  encoding: ISO-8859-1
transformation_rules:
  - field: loan_id
    actions:
      - type: pad_zeros_to_length
        value: "8"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/in", cfg.InputDir)
	assert.Equal(t, ".yaml", cfg.DeclarationExtension)
	assert.Equal(t, []string{"csv|parquet", "xlsx"}, cfg.OutputFormats)
	assert.Equal(t, HeaderModeAbsent, cfg.HeaderMode)
	assert.False(t, cfg.DatesEnabled())
	assert.False(t, cfg.KeepGoing())
	assert.Equal(t, '|', cfg.CSVSettings.Comma())
	assert.Equal(t, "ISO-8859-1", cfg.CSVSettings.Encoding)
	require.Len(t, cfg.TransformationRules, 1)
	require.NoError(t, cfg.Validate())
}

func TestLoadMainConfigMissingFile(t *testing.T) {
	_, err := LoadMainConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("input_dir: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidateRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MainConfig)
		want   string
	}{
		{"header mode", func(c *MainConfig) { c.HeaderMode = "sometimes" }, "header_mode"},
		{"declaration extension", func(c *MainConfig) { c.DeclarationExtension = ".xml" }, "declaration_extension"},
		{"same extensions", func(c *MainConfig) { c.InputExtension = ".json" }, "must differ"},
		{"concurrency", func(c *MainConfig) { c.MaxConcurrency = -1 }, "max_concurrency"},
		{"delimiter length", func(c *MainConfig) { c.CSVSettings.Delimiter = ",," }, "csv_settings.delimiter"},
		{"delimiter quote", func(c *MainConfig) { c.CSVSettings.Delimiter = `"` }, "is not allowed"},
		{"unknown action", func(c *MainConfig) {
			c.TransformationRules = []TransformationRule{{Field: "a", Actions: []TransformationAction{{Type: "explode"}}}}
		}, "unknown transformation type"},
		{"bad regex", func(c *MainConfig) {
			c.TransformationRules = []TransformationRule{{Field: "a", Actions: []TransformationAction{{Type: "regex_replace", Find: "("}}}}
		}, "invalid regex pattern"},
		{"bad length", func(c *MainConfig) {
			c.TransformationRules = []TransformationRule{{Field: "a", Actions: []TransformationAction{{Type: "ensure_length", Value: "x"}}}}
		}, "positive length"},
		{"missing field", func(c *MainConfig) {
			c.TransformationRules = []TransformationRule{{Actions: []TransformationAction{{Type: "trim"}}}}
		}, "field is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCommaAliases(t *testing.T) {
	tests := map[string]rune{
		"tab":       '\t',
		`\t`:        '\t',
		"pipe":      '|',
		"semicolon": ';',
		";":         ';',
		"":          ',',
	}
	for in, want := range tests {
		assert.Equal(t, want, CSVSettings{Delimiter: in}.Comma(), "delimiter %q", in)
	}
}

func TestParseHeaderMode(t *testing.T) {
	assert.Equal(t, HeaderModePresent, ParseHeaderMode("Present"))
	assert.Equal(t, HeaderModeAbsent, ParseHeaderMode(" ABSENT "))

	cfg := Default()
	cfg.HeaderMode = ParseHeaderMode("Detect")
	require.NoError(t, cfg.Validate())

	cfg.HeaderMode = ParseHeaderMode("sometimes")
	require.Error(t, cfg.Validate())
}
