package writer

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ginjaninja78/csv-parquet-converter/internal/types"
)

// ParquetWriter writes one record batch of nullable UTF-8 columns.
type ParquetWriter struct {
	// Allocator backs the Arrow buffers. Nil means memory.DefaultAllocator.
	Allocator memory.Allocator
}

// Format implements Writer.
func (ParquetWriter) Format() string { return "parquet" }

// Extension implements Writer.
func (ParquetWriter) Extension() string { return ".parquet" }

// ArrowSchema builds the Arrow schema for a FieldSchema: one nullable string
// column per field, in order.
func ArrowSchema(schema types.FieldSchema) *arrow.Schema {
	fields := make([]arrow.Field, len(schema))
	for i, name := range schema {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// Write implements Writer. w is not closed.
func (p ParquetWriter) Write(w io.Writer, ds *types.DatasetFile) error {
	mem := p.Allocator
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	schema := ArrowSchema(ds.Schema)

	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	for i := range ds.Records {
		values, present := ds.Row(i)
		for col := range values {
			sb := builder.Field(col).(*array.StringBuilder)
			if !present[col] {
				sb.AppendNull()
				continue
			}
			sb.Append(values[col])
		}
	}

	record := builder.NewRecord()
	defer record.Release()

	// The file writer closes its sink on Close; hide Close from it.
	sink := struct{ io.Writer }{w}

	fw, err := pqarrow.NewFileWriter(schema, sink, parquet.NewWriterProperties(parquet.WithAllocator(mem)), pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	if err := fw.Write(record); err != nil {
		fw.Close()
		return fmt.Errorf("failed to write parquet records: %w", err)
	}

	if err := fw.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
