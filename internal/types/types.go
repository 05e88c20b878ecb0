// =============================================================================
// ASYCUDA XML Converter - Shared Types
// =============================================================================
//
// This package contains the typed records produced by the record readers and
// consumed by the document builder. Types defined here are used by:
//   - xlsxparser
//   - csvparser
//   - converter
//
// RECORD MODEL:
//   A workbook yields one Header (sheet "SAD", one row) and an ordered list
//   of Items (sheet "Items", one row per shipment item). Every known column
//   is a named Text field. Text is an optional value: blank cells and
//   placeholder tokens such as "nan" or "None" are absent, so the builder
//   never has to recognise sentinel strings.
//
// =============================================================================

package types

import (
	"reflect"
	"strings"
)

// =============================================================================
// OPTIONAL TEXT
// =============================================================================

// placeholders are cell renderings that mean "no value".
var placeholders = map[string]struct{}{
	"nan":  {},
	"NaN":  {},
	"None": {},
	"none": {},
	"null": {},
	"NULL": {},
	"<NA>": {},
	"NaT":  {},
	"#N/A": {},
}

// Text is an optional cell value. The zero value is absent.
type Text struct {
	value   string
	present bool
}

// NewText normalizes a raw cell string. Surrounding whitespace is trimmed;
// blank strings and placeholder tokens produce an absent Text.
func NewText(raw string) Text {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Text{}
	}
	if _, ok := placeholders[s]; ok {
		return Text{}
	}
	return Text{value: s, present: true}
}

// Value returns the text and whether it is present.
func (t Text) Value() (string, bool) {
	return t.value, t.present
}

// Present reports whether the cell carried a usable value.
func (t Text) Present() bool {
	return t.present
}

// Or returns the value, or fallback when absent.
func (t Text) Or(fallback string) string {
	if t.present {
		return t.value
	}
	return fallback
}

// String returns the value or "" when absent.
func (t Text) String() string {
	return t.value
}

// =============================================================================
// HEADER RECORD
// =============================================================================

// Header holds the declaration-level attributes of one form (sheet "SAD").
// The col tag is the exact column header expected in the source sheet.
//
// Some columns (manifest reference, totals, container flag, delivery terms
// code) are read but always superseded by consignment constants when the
// document is built.
type Header struct {
	// Assessment notice
	TaxCode        Text `col:"Tax_code"`
	TaxDescription Text `col:"Tax_description"`
	TaxMop         Text `col:"Tax_mop"`
	TaxAmount      Text `col:"Tax_amount"`
	TotalItemTaxes Text `col:"Total_item_taxes"`

	// Properties
	SadFlow            Text `col:"Sad_flow"`
	NumberOfTheForm    Text `col:"Number_of_the_form"`
	TotalNumberOfForms Text `col:"Total_number_of_forms"`
	SelectedPage       Text `col:"Selected_page"`

	// Identification
	ManifestReferenceNumber    Text `col:"Manifest_reference_number"`
	CustomsClearanceOfficeCode Text `col:"Customs_clearance_office_code"`
	CustomsClearanceOfficeName Text `col:"Customs_clearance_office_name"`
	TypeOfDeclaration          Text `col:"Type_of_declaration"`
	GeneralProcedureCode       Text `col:"General_procedure_code"`

	// Traders
	ExporterCode  Text `col:"Exporter_code"`
	ExporterName  Text `col:"Exporter_name"`
	ConsigneeCode Text `col:"Consignee_code"`
	ConsigneeName Text `col:"Consignee_name"`
	FinancialCode Text `col:"Financial_code"`
	FinancialName Text `col:"Financial_name"`

	// Declarant
	DeclarantCode           Text `col:"Declarant_code"`
	DeclarantName           Text `col:"Declarant_name"`
	DeclarantRepresentative Text `col:"Declarant_representative"`
	ReferenceYear           Text `col:"Reference Year"`
	ReferenceNumber         Text `col:"Reference Number"`

	// General information
	CountryFirstDestination  Text `col:"Country_first_destination"`
	TradingCountry           Text `col:"Trading_country"`
	CountryOfOriginName      Text `col:"Country_of_origin_name"`
	ExportCountryCode        Text `col:"Export_country_code"`
	ExportCountryName        Text `col:"Export_country_name"`
	ExportCountryRegion      Text `col:"Export_country_region"`
	DestinationCountryCode   Text `col:"Destination_country_code"`
	DestinationCountryName   Text `col:"Destination_country_name"`
	DestinationCountryRegion Text `col:"Destination_country_region"`
	ValueDetails             Text `col:"Value_details"`
	CAP                      Text `col:"CAP"`

	// Transport
	ContainerFlag          Text `col:"Container_flag"`
	LocationOfGoods        Text `col:"Location_of_goods"`
	LocationOfGoodsAddress Text `col:"Location_of_goods_address"`
	DepartureIdentity      Text `col:"Departure_arrival_information Identity"`
	DepartureNationality   Text `col:"Departure_arrival_information Nationality"`
	BorderIdentity         Text `col:"Border_information Identity"`
	BorderNationality      Text `col:"Border_information Nationality"`
	BorderMode             Text `col:"Border_information Mode"`
	DeliveryTermsCode      Text `col:"Delivery_terms Code"`
	DeliveryTermsPlace     Text `col:"Delivery_terms Place"`
	BorderOfficeCode       Text `col:"Border_office Code"`
	BorderOfficeName       Text `col:"Border_office Name"`
	PlaceOfLoadingCode     Text `col:"Place_of_loading Code"`
	PlaceOfLoadingName     Text `col:"Place_of_loading Name"`

	// Financial
	DefferedPaymentReference Text `col:"Deffered_payment_reference"`
	ModeOfPayment            Text `col:"Mode_of_payment"`
	TransactionCode1         Text `col:"Financial_transaction Code_1"`
	TransactionCode2         Text `col:"Financial_transaction Code_2"`
	BankBranch               Text `col:"Bank Branch"`
	BankReference            Text `col:"Bank Reference"`
	TermsCode                Text `col:"Terms Code"`
	TermsDescription         Text `col:"Terms Description"`
	GlobalTaxes              Text `col:"Amounts Global_taxes"`
	TotalsTaxes              Text `col:"Amounts Totals_taxes"`
	GuaranteeAmount          Text `col:"Guarantee Amount"`

	// Transit
	ResultOfControl Text `col:"Result_of_control"`

	// Valuation
	TotalCost    Text `col:"Total_cost"`
	TotalCif     Text `col:"Total_cif"`
	TotalInvoice Text `col:"Total_invoice"`
}

// =============================================================================
// ITEM RECORD
// =============================================================================

// Item holds one line item of a form (one row of sheet "Items").
type Item struct {
	// Packages
	NumberOfPackages   Text `col:"Number_of_packages"`
	Marks1OfPackages   Text `col:"Marks1_of_packages"`
	Marks2OfPackages   Text `col:"Marks2_of_packages"`
	KindOfPackagesCode Text `col:"Kind_of_packages_code"`
	KindOfPackagesName Text `col:"Kind_of_packages_name"`

	// Tariff
	ExtendedCustomsProcedure Text `col:"Extended_customs_procedure"`
	NationalCustomsProcedure Text `col:"National_customs_procedure"`
	PreferenceCode           Text `col:"Preference_code"`
	CommodityCode            Text `col:"Commodity_code"`
	Precision4               Text `col:"Precision_4"`
	SupplementaryUnitCode    Text `col:"Supplementary_unit_code"`
	SupplementaryUnitName1   Text `col:"Supplementary_unit_name_1"`
	SupplementaryUnitQty1    Text `col:"Supplementary_unit_quantity_1"`
	SupplementaryUnitName2   Text `col:"Supplementary_unit_name_2"`
	SupplementaryUnitQty2    Text `col:"Supplementary_unit_quantity_2"`
	SupplementaryUnitName3   Text `col:"Supplementary_unit_name_3"`
	SupplementaryUnitQty3    Text `col:"Supplementary_unit_quantity_3"`
	QuotaCode                Text `col:"Quota_code"`

	// Goods description
	CountryOfOriginCode   Text `col:"Country_of_origin_code"`
	DescriptionOfGoods    Text `col:"Description_of_goods"`
	CommercialDescription Text `col:"Commercial_description"`

	// Valuation
	GrossWeight          Text `col:"Gross_weight_itm"`
	NetWeight            Text `col:"Net_weight_itm"`
	InvoiceAmountForeign Text `col:"Invoice Amount_foreign_currency"`
	TotalCifItm          Text `col:"Total_cif_itm"`
	StatisticalValue     Text `col:"Statistical_value"`
	DutyTaxAmount        Text `col:"Duty_tax_amount"`

	// Previous document
	SummaryDeclaration   Text `col:"Summary_declaration"`
	SummaryDeclarationSl Text `col:"Summary_declaration_sl"`
}

// =============================================================================
// COLUMN BINDING
// =============================================================================

// columnIndex maps a column header to a struct field index.
type columnIndex struct {
	names  []string
	fields map[string]int
}

var (
	headerColumns = indexColumns(reflect.TypeOf(Header{}))
	itemColumns   = indexColumns(reflect.TypeOf(Item{}))
	textType      = reflect.TypeOf(Text{})
)

func indexColumns(t reflect.Type) columnIndex {
	idx := columnIndex{fields: make(map[string]int, t.NumField())}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		col := f.Tag.Get("col")
		if col == "" || f.Type != textType {
			continue
		}
		idx.names = append(idx.names, col)
		idx.fields[col] = i
	}
	return idx
}

func (idx columnIndex) set(v reflect.Value, column, raw string) bool {
	i, ok := idx.fields[strings.TrimSpace(column)]
	if !ok {
		return false
	}
	v.Field(i).Set(reflect.ValueOf(NewText(raw)))
	return true
}

func (idx columnIndex) values(v reflect.Value) map[string]string {
	out := make(map[string]string)
	for _, name := range idx.names {
		t := v.Field(idx.fields[name]).Interface().(Text)
		if s, ok := t.Value(); ok {
			out[name] = s
		}
	}
	return out
}

// Set assigns a raw cell value to the field bound to column. It reports
// false when the column is not part of the header schema.
func (h *Header) Set(column, raw string) bool {
	return headerColumns.set(reflect.ValueOf(h).Elem(), column, raw)
}

// Values returns the present fields keyed by column header.
func (h Header) Values() map[string]string {
	return headerColumns.values(reflect.ValueOf(h))
}

// IsEmpty reports whether no field carries a value.
func (h Header) IsEmpty() bool {
	return len(h.Values()) == 0
}

// Set assigns a raw cell value to the field bound to column. It reports
// false when the column is not part of the item schema.
func (it *Item) Set(column, raw string) bool {
	return itemColumns.set(reflect.ValueOf(it).Elem(), column, raw)
}

// Values returns the present fields keyed by column header.
func (it Item) Values() map[string]string {
	return itemColumns.values(reflect.ValueOf(it))
}

// IsEmpty reports whether no field carries a value.
func (it Item) IsEmpty() bool {
	return len(it.Values()) == 0
}

// HeaderColumns returns the known header columns in declaration order.
func HeaderColumns() []string {
	return append([]string(nil), headerColumns.names...)
}

// ItemColumns returns the known item columns in declaration order.
func ItemColumns() []string {
	return append([]string(nil), itemColumns.names...)
}

// IsHeaderColumn reports whether column belongs to the header schema.
func IsHeaderColumn(column string) bool {
	_, ok := headerColumns.fields[strings.TrimSpace(column)]
	return ok
}

// IsItemColumn reports whether column belongs to the item schema.
func IsItemColumn(column string) bool {
	_, ok := itemColumns.fields[strings.TrimSpace(column)]
	return ok
}
