// =============================================================================
// ASYCUDA XML Converter - CSV Record Reader
// =============================================================================
//
// This module reads flat CSV exports of a declaration. Some brokers export
// the SAD and Items sheets side by side as one table:
//
//   Sad_flow,Exporter_name,Commodity_code,Invoice Amount_foreign_currency
//   I,ACME Corp,85171300,10.5
//   ,,94036000,4.5
//
// The first row holds column names. The first data row supplies the header
// record (SAD columns); every data row with Items values supplies one item
// record. Fully blank rows are skipped.
//
// FAILURE MODEL:
//   A file that cannot be parsed as CSV yields two *types.SourceReadError
//   warnings and no records, matching the workbook reader.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/types"
)

// Group names used in warnings.
const (
	HeaderGroup = "SAD"
	ItemsGroup  = "Items"
)

// utf8BOM is prepended by spreadsheet exports on Windows.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings controls CSV parsing.
type Settings struct {
	// Delimiter separates fields. Accepts a single character or one of the
	// names "tab", "pipe", "semicolon".
	// Default: ","
	Delimiter string
}

// DefaultSettings returns comma separated settings.
func DefaultSettings() Settings {
	return Settings{Delimiter: ","}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Reader reads flat CSV exports into typed records.
type Reader struct {
	settings Settings
}

// NewReader creates a Reader with the given settings.
func NewReader(settings Settings) *Reader {
	return &Reader{settings: settings}
}

// Read parses CSV bytes. See the package comment for the failure model.
func (r *Reader) Read(data []byte) types.Records {
	var records types.Records

	csvReader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	configureReader(csvReader, r.settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		err = fmt.Errorf("failed to read CSV: %w", err)
		records.Warnings = append(records.Warnings,
			&types.SourceReadError{Group: HeaderGroup, Err: err},
			&types.SourceReadError{Group: ItemsGroup, Err: err},
		)
		return records
	}
	if len(allRows) < 2 {
		return records
	}

	columns := cleanHeaders(allRows[0])
	records.UnknownColumns = unknownColumns(columns)

	first := true
	for _, row := range allRows[1:] {
		if isRowEmpty(row) {
			continue
		}

		var item types.Item
		for i, column := range columns {
			value := cell(row, i)
			if first {
				records.Header.Set(column, value)
			}
			item.Set(column, value)
		}
		first = false

		// A row carrying only SAD columns describes the form, not an item.
		if !item.IsEmpty() {
			records.Items = append(records.Items, item)
		}
	}

	return records
}

// Parse reads CSV bytes with the default settings.
func Parse(data []byte) types.Records {
	return NewReader(DefaultSettings()).Read(data)
}

// ParseFile reads a CSV export from disk.
func ParseFile(path string, settings Settings) (types.Records, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Records{}, fmt.Errorf("failed to open file: %w", err)
	}
	return NewReader(settings).Read(data), nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings Settings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Exports are often ragged at the end of a row.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		cleaned[i] = strings.TrimSpace(header)
	}
	return cleaned
}

func unknownColumns(columns []string) []string {
	var unknown []string
	for _, column := range columns {
		if column == "" {
			continue
		}
		if !types.IsHeaderColumn(column) && !types.IsItemColumn(column) {
			unknown = append(unknown, column)
		}
	}
	return unknown
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
