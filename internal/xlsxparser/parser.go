// =============================================================================
// ASYCUDA XML Converter - XLSX Record Reader
// =============================================================================
//
// This module reads declaration workbooks. A workbook carries two sheets:
//
//   SAD    one header row of column names, one row of values (the form)
//   Items  one header row of column names, one row per shipment item
//
//   | Tax_code | Sad_flow | Customs_clearance_office_code | ... |
//   |----------|----------|-------------------------------|-----|
//   | IR       | I        | LV01                          | ... |
//
// Column names are matched exactly (after trimming) against the typed
// records in package types. Unknown columns are reported, not fatal.
//
// FAILURE MODEL:
//   A sheet that is missing or unreadable yields an empty group and a
//   *types.SourceReadError warning. A file that is not a workbook at all
//   yields two warnings. The reader never fails the caller; deciding that
//   a file holds no data is the converter's job.
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/types"
)

// =============================================================================
// SHEET CONFIGURATION
// =============================================================================

// Sheets names the two record groups inside a workbook.
type Sheets struct {
	// Header is the sheet holding the single declaration row.
	// Default: "SAD"
	Header string

	// Items is the sheet holding one row per item.
	// Default: "Items"
	Items string
}

// DefaultSheets returns the default sheet names.
func DefaultSheets() Sheets {
	return Sheets{
		Header: "SAD",
		Items:  "Items",
	}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Reader reads workbooks into typed records.
type Reader struct {
	sheets Sheets
}

// NewReader creates a Reader for the given sheet names.
func NewReader(sheets Sheets) *Reader {
	return &Reader{sheets: sheets}
}

// Read parses workbook bytes. See the package comment for the failure model.
func (r *Reader) Read(data []byte) types.Records {
	var records types.Records

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		err = fmt.Errorf("failed to open workbook: %w", err)
		records.Warnings = append(records.Warnings,
			&types.SourceReadError{Group: r.sheets.Header, Err: err},
			&types.SourceReadError{Group: r.sheets.Items, Err: err},
		)
		return records
	}
	defer f.Close()

	header, unknown, err := readHeader(f, r.sheets.Header)
	if err != nil {
		records.Warnings = append(records.Warnings, &types.SourceReadError{Group: r.sheets.Header, Err: err})
	} else {
		records.Header = header
		records.UnknownColumns = append(records.UnknownColumns, unknown...)
	}

	items, unknown, err := readItems(f, r.sheets.Items)
	if err != nil {
		records.Warnings = append(records.Warnings, &types.SourceReadError{Group: r.sheets.Items, Err: err})
	} else {
		records.Items = items
		records.UnknownColumns = append(records.UnknownColumns, unknown...)
	}

	return records
}

// Parse reads workbook bytes using the default sheet names.
func Parse(data []byte) types.Records {
	return NewReader(DefaultSheets()).Read(data)
}

// ParseFile reads a workbook from disk using the default sheet names.
func ParseFile(path string) (types.Records, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Records{}, fmt.Errorf("failed to read workbook: %w", err)
	}
	return Parse(data), nil
}

// readHeader reads the first data row of the header sheet.
func readHeader(f *excelize.File, sheet string) (types.Header, []string, error) {
	var header types.Header

	rows, err := f.GetRows(sheet)
	if err != nil {
		return header, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return header, nil, nil
	}

	columns := rows[0]
	values := rows[1]

	var unknown []string
	for i, column := range columns {
		if strings.TrimSpace(column) == "" {
			continue
		}
		if !header.Set(column, cell(values, i)) {
			unknown = append(unknown, column)
		}
	}

	return header, unknown, nil
}

// readItems reads every non-empty data row of the items sheet, in order.
func readItems(f *excelize.File, sheet string) ([]types.Item, []string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, nil
	}

	columns := rows[0]

	var unknown []string
	for _, column := range columns {
		if strings.TrimSpace(column) != "" && !types.IsItemColumn(column) {
			unknown = append(unknown, column)
		}
	}

	items := make([]types.Item, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isRowEmpty(row) {
			continue
		}

		var item types.Item
		for i, column := range columns {
			item.Set(column, cell(row, i))
		}
		items = append(items, item)
	}

	return items, unknown, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// cell returns row[i], or "" for cells past the end of a short row.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
