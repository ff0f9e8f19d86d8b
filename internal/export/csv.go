package export

import (
	"encoding/csv"
	"io"
	"strings"

	"droneops/showlog/internal/models"
)

// CSVLine renders one row as a single RFC-4180 line without the trailing
// newline, quoting only where the value demands it.
func CSVLine(row []string) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(row)
	w.Flush()
	return strings.TrimRight(b.String(), "\r\n")
}

// WriteShowsCSV writes the full export: the fixed column header followed by one
// row per entry per show, in the order given.
func WriteShowsCSV(w io.Writer, shows []models.Show) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns()); err != nil {
		return err
	}
	for i := range shows {
		for j := range shows[i].Entries {
			if err := cw.Write(BuildRow(&shows[i], &shows[i].Entries[j])); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
