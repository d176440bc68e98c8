// =============================================================================
// Tabular Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and validating the application
// configuration. The configuration file is optional: every setting has a
// default, and the CLI can override the most common ones with flags.
//
// CONFIGURATION FLOW:
//   1. Start from Default()
//   2. Overlay the YAML file (if one is given)
//   3. Fill any remaining zero values with defaults
//   4. Apply CLI flag overrides (cmd package)
//   5. Validate
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// HEADER MODES
// =============================================================================

// HeaderMode selects how the resolver decides whether a file carries a header.
type HeaderMode string

const (
	// HeaderModeDetect sniffs the start of each file.
	HeaderModeDetect HeaderMode = "detect"

	// HeaderModePresent assumes every file starts with a header row.
	HeaderModePresent HeaderMode = "present"

	// HeaderModeAbsent assumes no file has a header; declarations are required.
	HeaderModeAbsent HeaderMode = "absent"
)

// DeclarationExtensions lists the sidecar declaration formats understood by
// the schema resolver.
var DeclarationExtensions = []string{".json", ".yaml", ".yml", ".xlsx"}

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned (non-recursively) for input files.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives one file per input and output format.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir, when set, receives each input (and its declaration)
	// after every requested format was written.
	// Default: "" (archiving disabled)
	InputArchiveDir string `yaml:"input_archive_dir"`

	// =========================================================================
	// FILE SELECTION
	// =========================================================================

	// InputExtension selects input files by extension (case-insensitive).
	// Default: ".csv"
	InputExtension string `yaml:"input_extension"`

	// DeclarationExtension is the extension of the sidecar schema declaration
	// that shares the input file's base name.
	// Default: ".json"
	DeclarationExtension string `yaml:"declaration_extension"`

	// =========================================================================
	// CONVERSION SETTINGS
	// =========================================================================

	// OutputFormats lists the formats to write. Entries may be pipe-joined,
	// e.g. "csv|parquet".
	// Default: ["csv"]
	OutputFormats []string `yaml:"output_formats"`

	// HeaderMode is one of "detect", "present", "absent".
	// Default: "detect"
	HeaderMode HeaderMode `yaml:"header_mode"`

	// StandardizeDates enables MM/DD/YYYY -> YYYY-MM-DD normalization of
	// fields whose name contains "date".
	// Default: true
	StandardizeDates *bool `yaml:"standardize_dates"`

	// SniffBytes is the size of the prefix inspected by header detection.
	// Default: 10240
	SniffBytes int `yaml:"sniff_bytes"`

	// PreviewRows is the number of records logged at debug level (and printed
	// by the preview command) per file.
	// Default: 5
	PreviewRows int `yaml:"preview_rows"`

	// CSVSettings controls how input files are decoded and parsed.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// TransformationRules are applied after date normalization.
	TransformationRules []TransformationRule `yaml:"transformation_rules"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files converted at once.
	// Default: 1 (files are converted one at a time in listing order)
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps converting the remaining files after a failure.
	// Default: true
	ContinueOnError *bool `yaml:"continue_on_error"`

	// WriteReports writes a processing summary and a diagnostics log into
	// the output directory after each run.
	// Default: false
	WriteReports bool `yaml:"write_reports"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing delimited input files.
type CSVSettings struct {
	// Delimiter separates fields. Accepts a single character or one of
	// "tab", "pipe", "semicolon".
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Encoding of the input files: "UTF-8", "UTF-16", "ISO-8859-1",
	// "Windows-1252". Output is always UTF-8.
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`

	// TrimSpaces trims surrounding whitespace from every value.
	// Default: false (values are kept verbatim)
	TrimSpaces bool `yaml:"trim_spaces"`

	// LazyQuotes tolerates quotes that do not follow strict CSV rules.
	// Default: true
	LazyQuotes *bool `yaml:"lazy_quotes"`
}

// Comma returns the delimiter as a rune.
func (s CSVSettings) Comma() rune {
	switch s.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		return '\t'
	case "|", "pipe", "PIPE":
		return '|'
	case ";", "semicolon":
		return ';'
	default:
		if s.Delimiter != "" {
			return []rune(s.Delimiter)[0]
		}
		return ','
	}
}

// Lazy reports whether lazy quoting is enabled.
func (s CSVSettings) Lazy() bool {
	return s.LazyQuotes == nil || *s.LazyQuotes
}

// =============================================================================
// TRANSFORMATION RULE STRUCTURE
// =============================================================================

// TransformationRule defines the actions applied to one field.
type TransformationRule struct {
	// Field is the exact field name.
	Field string `yaml:"field"`

	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions"`
}

// TransformationAction defines a single transformation action.
type TransformationAction struct {
	// Type is one of the names in ActionTypes.
	Type string `yaml:"type"`

	// Value is the action parameter (string to add, target length,
	// replacement, characters to trim).
	Value string `yaml:"value"`

	// Find is the substring or pattern for "replace" and "regex_replace".
	Find string `yaml:"find,omitempty"`

	// LookupTable maps input values to output values for "lookup".
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// ActionTypes lists the supported transformation action types.
var ActionTypes = []string{
	"prepend_string",
	"append_string",
	"trim",
	"trim_left",
	"trim_right",
	"uppercase",
	"lowercase",
	"replace",
	"regex_replace",
	"pad_zeros_to_length",
	"ensure_length",
	"lookup",
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ParseHeaderMode normalizes a header mode given in a file or on the command
// line. Validate rejects values outside the known modes.
func ParseHeaderMode(s string) HeaderMode {
	return HeaderMode(strings.ToLower(strings.TrimSpace(s)))
}

// DatesEnabled reports whether date standardization is on.
func (c *MainConfig) DatesEnabled() bool {
	return c.StandardizeDates == nil || *c.StandardizeDates
}

// KeepGoing reports whether the batch continues after a failed file.
func (c *MainConfig) KeepGoing() bool {
	return c.ContinueOnError == nil || *c.ContinueOnError
}

// Bool returns a pointer to b, for the optional boolean settings.
func Bool(b bool) *bool {
	return &b
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	cfg := &MainConfig{}
	ApplyDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. An empty path returns
//     the defaults.
//
// RETURNS:
//   - A pointer to the MainConfig struct with defaults applied.
//   - An error if the file cannot be read or parsed.
//
// Validation is left to the caller so flag overrides can be applied first.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	if configPath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration data and applies defaults.
func Parse(data []byte) (*MainConfig, error) {
	var cfg MainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyDefaults sets default values for any unset configuration options.
func ApplyDefaults(cfg *MainConfig) {
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.InputExtension == "" {
		cfg.InputExtension = ".csv"
	}
	if cfg.DeclarationExtension == "" {
		cfg.DeclarationExtension = ".json"
	}
	if len(cfg.OutputFormats) == 0 {
		cfg.OutputFormats = []string{"csv"}
	}
	if cfg.HeaderMode == "" {
		cfg.HeaderMode = HeaderModeDetect
	}
	if cfg.StandardizeDates == nil {
		cfg.StandardizeDates = Bool(true)
	}
	if cfg.SniffBytes == 0 {
		cfg.SniffBytes = 10240
	}
	if cfg.PreviewRows == 0 {
		cfg.PreviewRows = 5
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.ContinueOnError == nil {
		cfg.ContinueOnError = Bool(true)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	if cfg.CSVSettings.Delimiter == "" {
		cfg.CSVSettings.Delimiter = ","
	}
	if cfg.CSVSettings.Encoding == "" {
		cfg.CSVSettings.Encoding = "UTF-8"
	}
	if cfg.CSVSettings.LazyQuotes == nil {
		cfg.CSVSettings.LazyQuotes = Bool(true)
	}

	if !strings.HasPrefix(cfg.InputExtension, ".") {
		cfg.InputExtension = "." + cfg.InputExtension
	}
	if !strings.HasPrefix(cfg.DeclarationExtension, ".") {
		cfg.DeclarationExtension = "." + cfg.DeclarationExtension
	}
	cfg.DeclarationExtension = strings.ToLower(cfg.DeclarationExtension)
	cfg.HeaderMode = ParseHeaderMode(string(cfg.HeaderMode))
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration and returns every problem found.
func (c *MainConfig) Validate() error {
	var errs []error

	switch c.HeaderMode {
	case HeaderModeDetect, HeaderModePresent, HeaderModeAbsent:
	default:
		errs = append(errs, fmt.Errorf("header_mode must be one of detect, present, absent (got %q)", c.HeaderMode))
	}

	if !contains(DeclarationExtensions, c.DeclarationExtension) {
		errs = append(errs, fmt.Errorf("declaration_extension %q is not supported (use one of %s)",
			c.DeclarationExtension, strings.Join(DeclarationExtensions, ", ")))
	}

	if c.InputExtension == c.DeclarationExtension {
		errs = append(errs, fmt.Errorf("input_extension and declaration_extension must differ"))
	}

	if c.SniffBytes < 0 {
		errs = append(errs, fmt.Errorf("sniff_bytes must be positive"))
	}
	if c.PreviewRows < 0 {
		errs = append(errs, fmt.Errorf("preview_rows must not be negative"))
	}
	if c.MaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("max_concurrency must be at least 1"))
	}

	if !validDelimiter(c.CSVSettings.Delimiter) {
		errs = append(errs, fmt.Errorf("csv_settings.delimiter %q must be a single character or tab, pipe, semicolon", c.CSVSettings.Delimiter))
	} else {
		switch c.CSVSettings.Comma() {
		case '"', '\r', '\n', utf8.RuneError:
			errs = append(errs, fmt.Errorf("csv_settings.delimiter %q is not allowed", c.CSVSettings.Delimiter))
		}
	}

	for i, rule := range c.TransformationRules {
		if err := validateRule(rule); err != nil {
			errs = append(errs, fmt.Errorf("transformation_rules[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// validateRule checks a single transformation rule.
func validateRule(rule TransformationRule) error {
	if rule.Field == "" {
		return fmt.Errorf("field is required")
	}
	for j, action := range rule.Actions {
		if !contains(ActionTypes, action.Type) {
			return fmt.Errorf("actions[%d]: unknown transformation type %q", j, action.Type)
		}
		switch action.Type {
		case "pad_zeros_to_length", "ensure_length":
			if n, err := strconv.Atoi(action.Value); err != nil || n <= 0 {
				return fmt.Errorf("actions[%d]: %s needs a positive length, got %q", j, action.Type, action.Value)
			}
		case "regex_replace":
			if _, err := regexp.Compile(action.Find); err != nil {
				return fmt.Errorf("actions[%d]: invalid regex pattern: %w", j, err)
			}
		case "replace":
			if action.Find == "" {
				return fmt.Errorf("actions[%d]: replace needs a find value", j)
			}
		}
	}
	return nil
}

func validDelimiter(d string) bool {
	switch d {
	case "\\t", "tab", "TAB", "pipe", "PIPE", "semicolon":
		return true
	}
	return utf8.RuneCountInString(d) == 1
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
