package converter

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/ginjaninja78/csv-parquet-converter/internal/types"
)

// FormatPreview renders the schema and the first n records as an aligned
// table. Absent fields are shown as "<missing>".
func FormatPreview(ds *types.DatasetFile, n int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "File:          %s\n", ds.Path)
	fmt.Fprintf(&b, "Header source: %s\n", ds.HeaderSource)
	fmt.Fprintf(&b, "Records:       %d\n\n", len(ds.Records))

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ROW\t%s\n", strings.Join(ds.Schema, "\t"))

	n = min(n, len(ds.Records))
	for i := 0; i < n; i++ {
		values, present := ds.Row(i)
		cells := make([]string, len(values))
		for col, value := range values {
			if !present[col] {
				value = "<missing>"
			}
			cells[col] = value
		}
		fmt.Fprintf(tw, "%d\t%s\n", ds.Records[i].Row, strings.Join(cells, "\t"))
	}
	tw.Flush()

	if len(ds.Records) > n {
		fmt.Fprintf(&b, "... %d more\n", len(ds.Records)-n)
	}
	return b.String()
}
