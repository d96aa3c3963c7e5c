// Package export serializes validated tables in a neutral tabular form:
// ordered columns, explicit missing markers rendered as empty cells, list
// values re-encoded in the raw dataset's literal form. The core defines no
// on-disk layout; this is the boundary handed to whatever persistence the
// caller chooses.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/JonMunkholm/DataCheck/internal/table"
)

// WriteCSV writes the table to w as CSV, header first.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("export %s: write header: %w", t.Name, err)
	}

	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j, v := range row {
			record[j] = v.Display()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export %s: write row %d: %w", t.Name, i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
