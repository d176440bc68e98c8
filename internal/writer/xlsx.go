package writer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/csv-parquet-converter/internal/types"
)

// XLSXSheetName is the name of the single sheet in xlsx output.
const XLSXSheetName = "data"

// XLSXWriter writes a workbook with one sheet of text cells.
type XLSXWriter struct{}

// Format implements Writer.
func (XLSXWriter) Format() string { return "xlsx" }

// Extension implements Writer.
func (XLSXWriter) Extension() string { return ".xlsx" }

// Write implements Writer.
func (XLSXWriter) Write(w io.Writer, ds *types.DatasetFile) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), XLSXSheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(ds.Schema))
	for i, name := range ds.Schema {
		header[i] = name
	}
	if err := f.SetSheetRow(XLSXSheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write xlsx header: %w", err)
	}

	for i := range ds.Records {
		values, _ := ds.Row(i)
		row := make([]any, len(values))
		for col, value := range values {
			row[col] = value
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(XLSXSheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write xlsx row %d: %w", ds.Records[i].Row, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
