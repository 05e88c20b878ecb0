package xlsxparser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/testutil"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/types"
)

func TestParse_HeaderAndItems(t *testing.T) {
	data := testutil.Workbook(t,
		testutil.Sheet{
			Name:    "SAD",
			Columns: []string{"Customs_clearance_office_code", "Exporter_name", "Reference Year", "Legacy_col"},
			Rows:    [][]string{{"LV02", "  ACME Corp ", "2024", "x"}},
		},
		testutil.Sheet{
			Name:    "Items",
			Columns: []string{"Commodity_code", "Invoice Amount_foreign_currency", "Description_of_goods"},
			Rows: [][]string{
				{"85171300", "10.5", "Phones"},
				{"", "", ""},
				{"", "nan", "Cables"},
				{"94036000"},
			},
		},
	)

	records := Parse(data)

	require.Empty(t, records.Warnings)
	assert.Equal(t, "LV02", records.Header.CustomsClearanceOfficeCode.String())
	assert.Equal(t, "ACME Corp", records.Header.ExporterName.String())
	assert.Equal(t, "2024", records.Header.ReferenceYear.String())
	assert.Contains(t, records.UnknownColumns, "Legacy_col")

	require.Len(t, records.Items, 3, "blank rows are skipped")
	assert.Equal(t, "85171300", records.Items[0].CommodityCode.String())
	assert.Equal(t, "10.5", records.Items[0].InvoiceAmountForeign.String())
	assert.False(t, records.Items[1].CommodityCode.Present())
	assert.False(t, records.Items[1].InvoiceAmountForeign.Present(), "placeholder is absent")
	assert.Equal(t, "Cables", records.Items[1].DescriptionOfGoods.String())
	assert.Equal(t, "94036000", records.Items[2].CommodityCode.String())
	assert.False(t, records.Items[2].DescriptionOfGoods.Present(), "short row pads with absent cells")
}

func TestParse_MissingSheet(t *testing.T) {
	data := testutil.Workbook(t, testutil.Sheet{
		Name:    "Items",
		Columns: []string{"Commodity_code"},
		Rows:    [][]string{{"85171300"}},
	})

	records := Parse(data)

	require.Len(t, records.Warnings, 1)
	var readErr *types.SourceReadError
	require.True(t, errors.As(records.Warnings[0], &readErr))
	assert.Equal(t, "SAD", readErr.Group)
	assert.True(t, records.Header.IsEmpty())
	assert.Len(t, records.Items, 1)
	assert.False(t, records.IsEmpty())
}

func TestParse_HeaderWithoutValues(t *testing.T) {
	data := testutil.Workbook(t,
		testutil.Sheet{Name: "SAD", Columns: []string{"Sad_flow"}},
		testutil.Sheet{Name: "Items", Columns: []string{"Commodity_code"}},
	)

	records := Parse(data)

	assert.Empty(t, records.Warnings)
	assert.True(t, records.IsEmpty())
}

func TestParse_NotAWorkbook(t *testing.T) {
	records := Parse([]byte("definitely not a zip"))

	require.Len(t, records.Warnings, 2)
	assert.True(t, records.IsEmpty())
}

func TestReader_CustomSheets(t *testing.T) {
	data := testutil.Workbook(t,
		testutil.Sheet{Name: "Form", Columns: []string{"Sad_flow"}, Rows: [][]string{{"E"}}},
	)

	records := NewReader(Sheets{Header: "Form", Items: "Lines"}).Read(data)

	assert.Equal(t, "E", records.Header.SadFlow.String())
	require.Len(t, records.Warnings, 1)
	assert.ErrorContains(t, records.Warnings[0], "Lines")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.xlsx")
	data := testutil.Workbook(t, testutil.Sheet{Name: "SAD", Columns: []string{"Sad_flow"}, Rows: [][]string{{"I"}}})
	require.NoError(t, os.WriteFile(path, data, 0644))

	records, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "I", records.Header.SadFlow.String())

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}
