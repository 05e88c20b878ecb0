// Package testutil builds declaration workbooks for tests.
package testutil

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet is a header row of column names followed by data rows.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Workbook returns the bytes of an xlsx file holding the given sheets.
func Workbook(tb testing.TB, sheets ...Sheet) []byte {
	tb.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for _, s := range sheets {
		if _, err := f.NewSheet(s.Name); err != nil {
			tb.Fatalf("new sheet %s: %v", s.Name, err)
		}
		writeRow(tb, f, s.Name, 1, s.Columns)
		for i, row := range s.Rows {
			writeRow(tb, f, s.Name, i+2, row)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		tb.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// Declaration is a convenience for the common SAD + Items layout.
// header maps SAD columns to values; items are rows keyed by column.
func Declaration(tb testing.TB, header map[string]string, itemColumns []string, items [][]string) []byte {
	tb.Helper()

	var sheets []Sheet
	if header != nil {
		sad := Sheet{Name: "SAD"}
		var values []string
		for col, val := range header {
			sad.Columns = append(sad.Columns, col)
			values = append(values, val)
		}
		sad.Rows = [][]string{values}
		sheets = append(sheets, sad)
	}
	if itemColumns != nil {
		sheets = append(sheets, Sheet{Name: "Items", Columns: itemColumns, Rows: items})
	}
	return Workbook(tb, sheets...)
}

func writeRow(tb testing.TB, f *excelize.File, sheet string, row int, values []string) {
	tb.Helper()

	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		tb.Fatalf("cell name: %v", err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		tb.Fatalf("set row %d of %s: %v", row, sheet, err)
	}
}
