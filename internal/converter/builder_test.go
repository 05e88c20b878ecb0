package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/config"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/types"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/validation"
	x "github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/xmlwriter"
)

func header(values map[string]string) types.Header {
	var h types.Header
	for col, v := range values {
		h.Set(col, v)
	}
	return h
}

func item(values map[string]string) types.Item {
	var it types.Item
	for col, v := range values {
		it.Set(col, v)
	}
	return it
}

func leaf(t *testing.T, root *x.Node, path string) string {
	t.Helper()
	n := root.Find(path)
	require.NotNil(t, n, "missing element %s", path)
	require.True(t, n.IsLeaf(), "%s is not a leaf", path)
	return n.Text
}

func TestBuild_Shape(t *testing.T) {
	items := []types.Item{
		item(map[string]string{"Commodity_code": "1"}),
		item(map[string]string{"Commodity_code": "2"}),
		item(map[string]string{"Commodity_code": "3"}),
	}

	root := NewBuilder(nil).Build(types.Header{}, items)

	assert.Equal(t, "ASYCUDA", root.Name)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "SAD", root.Children[0].Name)
	assert.Equal(t, "Items", root.Children[1].Name)

	var sections []string
	for _, c := range root.Child("SAD").Children {
		sections = append(sections, c.Name)
	}
	assert.Equal(t, validation.SADSections, sections)

	got := root.Child("Items").ChildrenNamed("Item")
	require.Len(t, got, 3)
	for i, want := range []string{"1", "2", "3"} {
		assert.Equal(t, want, leaf(t, got[i], "Tariff/Harmonized_system/Commodity_code"))
	}

	assert.Empty(t, validation.Validate(root, len(items)))
}

func TestBuild_ConstantsOverrideHeader(t *testing.T) {
	h := header(map[string]string{
		"Manifest_reference_number":    "OTHER 1",
		"Total_item_taxes":             "1",
		"Tax_amount":                   "2",
		"Total_number_of_forms":        "3",
		"Value_details":                "4",
		"Container_flag":               "True",
		"Delivery_terms Code":          "EXW",
		"Amounts Totals_taxes":         "5",
		"Total_cost":                   "6",
		"Total_cif":                    "7",
		"Total_invoice":                "8",
		"Sad_flow":                     "E",
	})
	c := config.DefaultConsignment()

	root := NewBuilder(c).Build(h, []types.Item{{}})

	tests := map[string]string{
		"SAD/Identification/Manifest_reference_number":                  c.ManifestReference,
		"SAD/Assessment_notice/Total_item_taxes":                        c.Totals.ItemTaxes,
		"SAD/Assessment_notice/Items_taxes/Item_tax/Tax_amount":         c.Totals.ItemTaxes,
		"SAD/Properties/Forms/Total_number_of_forms":                    c.Totals.Forms,
		"SAD/General_information/Value_details":                         c.Totals.Cost,
		"SAD/Transport/Container_flag":                                  c.ContainerFlag,
		"SAD/Transport/Delivery_terms/Code":                             c.DeliveryTermsCode,
		"SAD/Financial/Amounts/Totals_taxes":                            c.Totals.ItemTaxes,
		"SAD/Valuation/Total_cost":                                      c.Totals.Cost,
		"SAD/Valuation/Total_cif":                                       c.Totals.CIF,
		"SAD/Valuation/Total/Total_invoice":                             c.Totals.Invoice,
		"SAD/Valuation/Calculation_working_mode":                        c.CalculationWorkingMode,
		"SAD/Properties/Sad_flow":                                       "E",
	}
	for path, want := range tests {
		assert.Equal(t, want, leaf(t, root, path), path)
	}
}

func TestBuild_BlankConstantFallsBackToRecord(t *testing.T) {
	c := config.DefaultConsignment()
	c.ManifestReference = ""
	c.ItemValuation.TotalCIF = "  "

	root := NewBuilder(c).Build(
		header(map[string]string{"Manifest_reference_number": "LV03 2025 1"}),
		[]types.Item{item(map[string]string{"Total_cif_itm": "12.5"})},
	)

	assert.Equal(t, "LV03 2025 1", leaf(t, root, "SAD/Identification/Manifest_reference_number"))
	assert.Equal(t, "12.5", leaf(t, root, "Items/Item/Valuation_item/Total_cif_itm"))
}

func TestBuild_HeaderValueOrDefault(t *testing.T) {
	tests := []struct {
		column string
		path   string
		def    string
	}{
		{"Tax_code", "SAD/Assessment_notice/Items_taxes/Item_tax/Tax_code", "IR"},
		{"Tax_description", "SAD/Assessment_notice/Items_taxes/Item_tax/Tax_description", "Invoerrechten"},
		{"Sad_flow", "SAD/Properties/Sad_flow", "I"},
		{"Customs_clearance_office_name", "SAD/Identification/Office_segment/Customs_clearance_office_name", "Luchthaven Vracht"},
		{"Type_of_declaration", "SAD/Identification/Type/Type_of_declaration", "INV"},
		{"Consignee_code", "SAD/Traders/Consignee/Consignee_code", "10026483"},
		{"Exporter_name", "SAD/Traders/Exporter/Exporter_name", ""},
		{"Declarant_code", "SAD/Declarant/Declarant_code", "1160650"},
		{"Reference Year", "SAD/Declarant/Reference/Year", "2025"},
		{"Destination_country_code", "SAD/General_information/Country/Destination/Destination_country_code", "AW"},
		{"Export_country_region", "SAD/General_information/Country/Export/Export_country_region", ""},
		{"Location_of_goods", "SAD/Transport/Location_of_goods", "RT-01"},
		{"Departure_arrival_information Identity", "SAD/Transport/Means_of_transport/Departure_arrival_information/Identity", "COPA AIRLINES"},
		{"Border_information Mode", "SAD/Transport/Means_of_transport/Border_information/Mode", "4"},
		{"Place_of_loading Name", "SAD/Transport/Place_of_loading/Name", "Aeropuerto Reina Beatrix"},
		{"Mode_of_payment", "SAD/Financial/Mode_of_payment", "CONTANT"},
		{"Financial_transaction Code_2", "SAD/Financial/Financial_transaction/Code_2", "1"},
		{"Guarantee Amount", "SAD/Financial/Guarantee/Amount", "0"},
		{"Result_of_control", "SAD/Transit/Result_of_control", ""},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			b := NewBuilder(nil)
			items := []types.Item{{}}

			assert.Equal(t, tt.def, leaf(t, b.Build(types.Header{}, items), tt.path), "absent")
			assert.Equal(t, tt.def, leaf(t, b.Build(header(map[string]string{tt.column: "  "}), items), tt.path), "blank")
			assert.Equal(t, tt.def, leaf(t, b.Build(header(map[string]string{tt.column: "nan"}), items), tt.path), "placeholder")
			assert.Equal(t, "VALUE", leaf(t, b.Build(header(map[string]string{tt.column: "VALUE"}), items), tt.path), "present")
		})
	}
}

func TestBuild_TransactionCodesAreIndependent(t *testing.T) {
	root := NewBuilder(nil).Build(header(map[string]string{
		"Financial_transaction Code_1": "2",
		"Financial_transaction Code_2": "9",
	}), nil)

	assert.Equal(t, "2", leaf(t, root, "SAD/Financial/Financial_transaction/Code_1"))
	assert.Equal(t, "9", leaf(t, root, "SAD/Financial/Financial_transaction/Code_2"))
}

func TestBuild_InvoiceAggregateAndPassThrough(t *testing.T) {
	items := []types.Item{item(map[string]string{"Invoice Amount_foreign_currency": "100.00"})}

	root := NewBuilder(nil).Build(types.Header{}, items)

	assert.Equal(t, "100.0", leaf(t, root, "SAD/Valuation/Invoice/Amount_foreign_currency"))
	assert.Equal(t, "100.00", leaf(t, root, "Items/Item/Valuation_item/Invoice/Amount_foreign_currency"))
	assert.Equal(t, "", leaf(t, root, "Items/Item/Valuation_item/Invoice/Amount_national_currency"))
	assert.Equal(t, "1", leaf(t, root, "SAD/Valuation/Total/Total_weight"))
}

func TestBuild_EmptyItemList(t *testing.T) {
	root := NewBuilder(nil).Build(header(map[string]string{"Sad_flow": "E"}), nil)

	assert.Equal(t, "0.0", leaf(t, root, "SAD/Valuation/Invoice/Amount_foreign_currency"))
	assert.Equal(t, "0", leaf(t, root, "SAD/Valuation/Total/Total_weight"))
	assert.Empty(t, root.Child("Items").Children)
}

func TestBuild_FormValuation(t *testing.T) {
	c := config.DefaultConsignment()
	root := NewBuilder(c).Build(types.Header{}, []types.Item{{}})
	v := root.Find("SAD/Valuation")

	assert.Equal(t, c.FormValuation.InvoiceNational, leaf(t, v, "Invoice/Amount_national_currency"))
	assert.Equal(t, c.FormValuation.ExternalFreight.Foreign, leaf(t, v, "External_freight/Amount_foreign_currency"))
	assert.Equal(t, c.FormValuation.Insurance.National, leaf(t, v, "Insurance/Amount_national_currency"))
	assert.Equal(t, c.FormValuation.OtherCost.Foreign, leaf(t, v, "Other_cost/Amount_foreign_currency"))
	assert.Equal(t, c.Currency.Rate, leaf(t, v, "Insurance/Currency_rate"))

	assert.Equal(t, "0", leaf(t, v, "Internal_freight/Amount_foreign_currency"))
	assert.Equal(t, "", leaf(t, v, "Internal_freight/Currency_code"))
	assert.Equal(t, "0", leaf(t, v, "Internal_freight/Currency_rate"))
	assert.Equal(t, c.Currency.Name, leaf(t, v, "Internal_freight/Currency_name"))

	assert.Equal(t, "0", leaf(t, v, "Deduction/Amount_national_currency"))
	assert.Equal(t, c.Currency.Code, leaf(t, v, "Deduction/Currency_code"))
}

func TestBuild_ItemSections(t *testing.T) {
	c := config.DefaultConsignment()
	it := item(map[string]string{
		"Number_of_packages":            "3",
		"Supplementary_unit_name_2":     "Liter",
		"Supplementary_unit_quantity_2": "4",
		"Description_of_goods":          "Phones",
		"Statistical_value":             "999",
		"Duty_tax_amount":               "1000",
	})

	root := NewBuilder(c).Build(types.Header{}, []types.Item{it})
	n := root.Find("Items/Item")

	var sections []string
	for _, s := range n.Children {
		sections = append(sections, s.Name)
	}
	assert.Equal(t, []string{"Packages", "Tariff", "Goods_description", "Valuation_item", "Previous_document", "Taxation"}, sections)

	assert.Equal(t, "3", leaf(t, n, "Packages/Number_of_packages"))
	assert.Equal(t, "STKS", leaf(t, n, "Packages/Kind_of_packages_code"))
	assert.Equal(t, "00:00:00", leaf(t, n, "Tariff/National_customs_procedure"))
	assert.Equal(t, "", leaf(t, n, "Tariff/Harmonized_system/Commodity_code"))
	assert.Equal(t, "US", leaf(t, n, "Goods_description/Country_of_origin_code"))
	assert.Equal(t, "Phones", leaf(t, n, "Goods_description/Description_of_goods"))

	units := n.Child("Tariff").ChildrenNamed("Supplementary_unit")
	require.Len(t, units, 3)
	assert.Equal(t, "", leaf(t, units[0], "Supplementary_unit_rank"))
	assert.Equal(t, "PCE", leaf(t, units[0], "Supplementary_unit_code"))
	assert.Equal(t, "Aantal Stucks", leaf(t, units[0], "Supplementary_unit_name"))
	assert.Equal(t, "2", leaf(t, units[1], "Supplementary_unit_rank"))
	assert.Nil(t, units[1].Child("Supplementary_unit_code"))
	assert.Equal(t, "Liter", leaf(t, units[1], "Supplementary_unit_name"))
	assert.Equal(t, "4", leaf(t, units[1], "Supplementary_unit_quantity"))
	assert.Equal(t, "3", leaf(t, units[2], "Supplementary_unit_rank"))
	assert.Equal(t, "", leaf(t, units[2], "Supplementary_unit_name"))

	for i, want := range [][]string{
		{"Supplementary_unit_rank", "Supplementary_unit_code", "Supplementary_unit_name", "Supplementary_unit_quantity"},
		{"Supplementary_unit_rank", "Supplementary_unit_name", "Supplementary_unit_quantity"},
		{"Supplementary_unit_rank", "Supplementary_unit_name", "Supplementary_unit_quantity"},
	} {
		var names []string
		for _, child := range units[i].Children {
			names = append(names, child.Name)
		}
		assert.Equal(t, want, names, "rank %d", i+1)
	}

	vi := n.Child("Valuation_item")
	assert.Equal(t, c.ItemValuation.StatisticalValue, leaf(t, vi, "Statistical_value"))
	assert.Equal(t, c.ItemValuation.AlphaCoefficient, leaf(t, vi, "Alpha_coeficient_of_apportionment"))
	assert.Equal(t, "0.5", leaf(t, vi, "Weight/Gross_weight_itm"))
	assert.Equal(t, c.ItemValuation.ExternalFreight.National, leaf(t, vi, "External_freight/Amount_national_currency"))
	assert.Equal(t, c.ItemValuation.OtherCost.Foreign, leaf(t, vi, "Other_cost/Amount_foreign_currency"))
	assert.Equal(t, "", leaf(t, vi, "Internal_freight/Amount_foreign_currency"))

	assert.Equal(t, "1", leaf(t, n, "Previous_document/Summary_declaration_sl"))

	tax := n.Child("Taxation")
	assert.Equal(t, c.Duty.Amount, leaf(t, tax, "Item_taxes_amount"))
	assert.Equal(t, c.Duty.Code, leaf(t, tax, "Taxation_line/Duty_tax_code"))
	assert.Equal(t, c.Duty.Amount, leaf(t, tax, "Taxation_line/Duty_tax_amount"))
	assert.Equal(t, "1", leaf(t, tax, "Taxation_line/Duty_tax_MP"))
}

func TestBuild_Idempotent(t *testing.T) {
	h := header(map[string]string{"Exporter_name": "ACME", "CAP": "x"})
	items := []types.Item{
		item(map[string]string{"Invoice Amount_foreign_currency": "1.5"}),
		item(map[string]string{"Invoice Amount_foreign_currency": "2.5"}),
	}
	b := NewBuilder(nil)

	first := b.Build(h, items)
	second := b.Build(h, items)

	assert.True(t, first.Equal(second))
	assert.NotSame(t, first, second)

	a, err := x.Marshal(first)
	require.NoError(t, err)
	bb, err := x.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(bb))
}

func TestBuild_NoPlaceholderText(t *testing.T) {
	h := types.Header{}
	for _, col := range types.HeaderColumns() {
		h.Set(col, "None")
	}
	it := types.Item{}
	for _, col := range types.ItemColumns() {
		it.Set(col, "nan")
	}

	root := NewBuilder(nil).Build(h, []types.Item{it})

	root.Walk(func(n *x.Node, _ int) {
		assert.NotEqual(t, "None", n.Text, n.Name)
		assert.NotEqual(t, "nan", n.Text, n.Name)
	})
	assert.Empty(t, validation.Validate(root, 1))
}
