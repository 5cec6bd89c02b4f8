package export

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
)

// WriteCSV writes a header of cols followed by one line per row and returns
// the number of data rows written.
func WriteCSV(w io.Writer, cols []string, rows Rows) (int, error) {
	cw := csv.NewWriter(w)

	if err := cw.Write(cols); err != nil {
		return 0, eris.Wrap(err, "export: csv: write header")
	}

	n := 0
	line := make([]string, len(cols))
	for rec, err := range rows {
		if err != nil {
			return n, err
		}
		for i, c := range cols {
			line[i] = cellString(rec[c])
		}
		if err := cw.Write(line); err != nil {
			return n, eris.Wrap(err, "export: csv: write row")
		}
		n++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, eris.Wrap(err, "export: csv: flush")
	}
	return n, nil
}
