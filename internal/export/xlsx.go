package export

import (
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// DefaultSheet is the worksheet name used when none is given.
const DefaultSheet = "earthquakes"

// WriteXLSX writes a single-sheet workbook with a header row. Numbers stay
// numeric cells; everything else is text.
func WriteXLSX(w io.Writer, sheetName string, cols []string, rows Rows) (int, error) {
	if sheetName == "" {
		sheetName = DefaultSheet
	}
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return 0, eris.Wrapf(err, "export: xlsx: add sheet %s", sheetName)
	}

	header := sheet.AddRow()
	for _, c := range cols {
		header.AddCell().SetString(c)
	}

	n := 0
	for rec, err := range rows {
		if err != nil {
			return n, err
		}
		row := sheet.AddRow()
		for _, c := range cols {
			setCell(row.AddCell(), rec[c])
		}
		n++
	}

	if err := f.Write(w); err != nil {
		return n, eris.Wrap(err, "export: xlsx: write workbook")
	}
	return n, nil
}

func setCell(cell *xlsx.Cell, v any) {
	switch t := v.(type) {
	case nil:
	case int64:
		cell.SetInt64(t)
	case float64:
		cell.SetFloat(t)
	case bool:
		cell.SetBool(t)
	case time.Time:
		cell.SetString(t.UTC().Format(time.RFC3339))
	default:
		cell.SetString(cellString(v))
	}
}
