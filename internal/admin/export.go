package admin

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVHeader is the first line of an export.
var CSVHeader = []string{"id", "name", "status", "date"}

// ExportCSV writes rows as CSV with a header line.
func ExportCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.ID, r.Name, string(r.Status), r.Date}); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
