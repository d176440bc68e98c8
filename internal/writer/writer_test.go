package writer

import (
	"bytes"
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/csv-parquet-converter/internal/types"
)

func sampleDataset() *types.DatasetFile {
	return &types.DatasetFile{
		Path:   "/in/b.csv",
		Schema: types.FieldSchema{"colA", "signup_date"},
		Records: []types.Record{
			{Row: 1, Values: map[string]string{"colA": "10", "signup_date": "2020-01-05"}},
			{Row: 2, Values: map[string]string{"colA": "30"}},
			{Row: 3, Values: map[string]string{"colA": "a,b", "signup_date": "", "Column_3": "extra"}},
		},
		HeaderSource: types.FromDeclaration("/in/b.json"),
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"csv", "parquet", "xlsx", " CSV "} {
		w, err := Lookup(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, w.Extension())
	}

	_, err := Lookup("avro")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnsupportedOutputFormat)
	assert.Contains(t, err.Error(), "avro")
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{"csv", "parquet", "xlsx"}, Formats())
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    []string
	}{
		{"single", []string{"csv"}, []string{"csv"}},
		{"pipe joined", []string{"csv|parquet"}, []string{"csv", "parquet"}},
		{"mixed separators and case", []string{"CSV, Parquet", "xlsx|csv"}, []string{"csv", "parquet", "xlsx"}},
		{"empty parts dropped", []string{"|csv||", " "}, []string{"csv"}},
		{"nothing", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFormats(tt.entries))
		})
	}
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSVWriter{}.Write(&buf, sampleDataset()))

	want := "colA,signup_date\n" +
		"10,2020-01-05\n" +
		"30,\n" +
		"\"a,b\",\n"
	assert.Equal(t, want, buf.String())
}

func TestParquetWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ParquetWriter{Allocator: memory.NewGoAllocator()}.Write(&buf, sampleDataset()))

	table, err := pqarrow.ReadTable(context.Background(), bytes.NewReader(buf.Bytes()),
		parquet.NewReaderProperties(memory.DefaultAllocator), pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	require.NoError(t, err)
	defer table.Release()

	require.EqualValues(t, 2, table.NumCols())
	require.EqualValues(t, 3, table.NumRows())
	assert.Equal(t, "colA", table.Schema().Field(0).Name)
	assert.Equal(t, "signup_date", table.Schema().Field(1).Name)

	colA := table.Column(0).Data().Chunk(0).(*array.String)
	assert.Equal(t, "10", colA.Value(0))
	assert.Equal(t, "a,b", colA.Value(2))

	dates := table.Column(1).Data().Chunk(0).(*array.String)
	assert.Equal(t, "2020-01-05", dates.Value(0))
	assert.True(t, dates.IsNull(1))
	assert.False(t, dates.IsNull(2))
	assert.Equal(t, "", dates.Value(2))
}

func TestXLSXWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XLSXWriter{}.Write(&buf, sampleDataset()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{XLSXSheetName}, f.GetSheetList())

	rows, err := f.GetRows(XLSXSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"colA", "signup_date"}, rows[0])
	assert.Equal(t, []string{"10", "2020-01-05"}, rows[1])
	assert.Equal(t, "30", rows[2][0])
	assert.Equal(t, "a,b", rows[3][0])
}

func TestArrowSchemaKeepsOrder(t *testing.T) {
	schema := ArrowSchema(types.FieldSchema{"zeta", "alpha"})
	require.Equal(t, 2, schema.NumFields())
	assert.Equal(t, "zeta", schema.Field(0).Name)
	assert.True(t, schema.Field(1).Nullable)
}
