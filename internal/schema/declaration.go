// =============================================================================
// Tabular Converter - Schema Declarations
// =============================================================================
//
// A headerless input file borrows its field names from a sidecar declaration
// that shares the input's base name. The declaration is key-ordered data;
// only the keys matter and their order is the FieldSchema order.
//
// SUPPORTED DECLARATIONS:
//   .json        {"colA": "", "colB": ""}       object keys in document order
//   .yaml/.yml   colA: string                    mapping keys in document order
//   .xlsx        column A of the first sheet, below one title row
//
//   | Column A  | Column B (ignored) |
//   |-----------|--------------------|
//   | field     | description        |
//   | colA      | first column       |
//   | colB      | second column      |
//
// =============================================================================

package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/csv-parquet-converter/internal/types"
)

// XLSXTitleRows is the number of title rows skipped in an xlsx declaration.
const XLSXTitleRows = 1

// DeclarationPath returns the sidecar path for an input file: the input path
// with its extension replaced by ext.
func DeclarationPath(inputPath, ext string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ext
}

// LoadDeclaration reads a declaration and returns its keys in order.
//
// RETURNS:
//   - The declared FieldSchema.
//   - types.ErrSchemaNotFound if the file does not exist.
//   - types.ErrDeclarationMalformed if it is not key-ordered data or
//     declares no fields.
func LoadDeclaration(fs billy.Filesystem, path string) (types.FieldSchema, error) {
	data, err := util.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, types.NewError(types.CodeSchemaNotFound, path, err)
		}
		return nil, types.NewError(types.CodeReadFailed, path, err)
	}

	names, err := ParseDeclaration(filepath.Ext(path), data)
	if err != nil {
		return nil, types.NewError(types.CodeDeclarationMalformed, path, err)
	}
	return names, nil
}

// ParseDeclaration decodes declaration data by extension.
func ParseDeclaration(ext string, data []byte) (types.FieldSchema, error) {
	var (
		names types.FieldSchema
		err   error
	)

	switch strings.ToLower(ext) {
	case ".json":
		names, err = parseJSONDeclaration(data)
	case ".yaml", ".yml":
		names, err = parseYAMLDeclaration(data)
	case ".xlsx":
		names, err = parseXLSXDeclaration(data)
	default:
		return nil, fmt.Errorf("unsupported declaration extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("declaration has no fields")
	}
	return names, nil
}

// parseJSONDeclaration keeps the object keys in document order.
func parseJSONDeclaration(data []byte) (types.FieldSchema, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("declaration must be a JSON object")
	}

	om := orderedmap.New[string, any]()
	if err := json.Unmarshal(trimmed, om); err != nil {
		return nil, fmt.Errorf("invalid JSON declaration: %w", err)
	}

	names := make(types.FieldSchema, 0, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names, nil
}

// parseYAMLDeclaration walks the mapping node so key order survives.
func parseYAMLDeclaration(data []byte) (types.FieldSchema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML declaration: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("declaration is empty")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("declaration must be a YAML mapping")
	}

	names := make(types.FieldSchema, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("declaration key at line %d is not a scalar", key.Line)
		}
		names = append(names, key.Value)
	}
	return names, nil
}

// parseXLSXDeclaration reads field names from column A of the first sheet.
func parseXLSXDeclaration(data []byte) (types.FieldSchema, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX declaration: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("XLSX declaration has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	var names types.FieldSchema
	for i, row := range rows {
		if i < XLSXTitleRows || len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
