package writer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ginjaninja78/csv-parquet-converter/internal/types"
)

// CSVWriter writes comma-separated text with a header line.
type CSVWriter struct{}

// Format implements Writer.
func (CSVWriter) Format() string { return "csv" }

// Extension implements Writer.
func (CSVWriter) Extension() string { return ".csv" }

// Write implements Writer.
func (CSVWriter) Write(w io.Writer, ds *types.DatasetFile) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(ds.Schema); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range ds.Records {
		values, _ := ds.Row(i)
		if err := cw.Write(values); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", ds.Records[i].Row, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
