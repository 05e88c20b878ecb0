package converter

import (
	"strconv"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/config"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/types"
	x "github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/xmlwriter"
)

// =============================================================================
// DOCUMENT BUILDER
// =============================================================================
//
// The builder maps one form (a header record plus its items) onto the fixed
// ASYCUDA tree:
//
//   ASYCUDA
//   ├── SAD
//   │   ├── Assessment_notice
//   │   ├── Properties
//   │   ├── Identification
//   │   ├── Traders
//   │   ├── Declarant
//   │   ├── General_information
//   │   ├── Transport
//   │   ├── Financial
//   │   ├── Transit
//   │   └── Valuation
//   └── Items
//       └── Item (one per item record, input order)
//
// VALUE RESOLUTION:
//   Each leaf takes the first of:
//     1. the consignment constant backing it, when that constant is set
//     2. the record value, when present
//     3. the default literal
//   and is written empty otherwise.
//
// The builder is pure: no I/O, no logging, no clock. The same input always
// yields an equal tree.

// Default literals used when neither a constant nor a record value applies.
const (
	defaultTaxCode        = "IR"
	defaultTaxDescription = "Invoerrechten"
	defaultModeOfPayment  = "1"

	defaultSadFlow      = "I"
	defaultFormNumber   = "1"
	defaultSelectedPage = "1"

	defaultOfficeCode      = "LV01"
	defaultOfficeName      = "Luchthaven Vracht"
	defaultDeclarationType = "INV"
	defaultProcedureCode   = "4"

	defaultConsigneeCode = "10026483"
	defaultConsigneeName = "Dhr. Anthony Martina Paradera 1-H Paradera Paradera Aruba"

	defaultDeclarantCode           = "1160650"
	defaultDeclarantName           = "Dhr. Victor Hoek Alto Vista 133 Alto Vista Noord/Tanki Leendert Aruba"
	defaultDeclarantRepresentative = "Lizandra I. Geerman"
	defaultReferenceYear           = "2025"

	defaultCountryCode        = "US"
	defaultCountryName        = "Verenigde Staten"
	defaultDestinationCode    = "AW"
	defaultDestinationName    = "Aruba"
	defaultLocationOfGoods    = "RT-01"
	defaultLocationAddress    = "Sabana Berde #75"
	defaultCarrier            = "COPA AIRLINES"
	defaultCarrierNationality = "PA"
	defaultBorderMode         = "4"
	defaultDeliveryPlace      = "USA"
	defaultLoadingCode        = "AWAIR"
	defaultLoadingName        = "Aeropuerto Reina Beatrix"

	defaultPaymentMode     = "CONTANT"
	defaultTransactionCode = "1"
	defaultZero            = "0"

	defaultPackageKindCode  = "STKS"
	defaultPackageKindName  = "Stuks"
	defaultExtendedProc     = "4000"
	defaultNationalProc     = "00:00:00"
	defaultUnitCode         = "PCE"
	defaultUnitName         = "Aantal Stucks"
	defaultItemWeight       = "0.5"
	defaultAdjustmentRate   = "1"
	defaultSummarySl        = "1"
	defaultItemTaxesPayment = "1"
	defaultDutyTaxMP        = "1"
)

// Builder assembles ASYCUDA documents for one consignment.
type Builder struct {
	c *config.Consignment
}

// NewBuilder creates a Builder. A nil consignment uses the defaults.
func NewBuilder(c *config.Consignment) *Builder {
	if c == nil {
		c = config.DefaultConsignment()
	}
	return &Builder{c: c}
}

// Consignment returns the constants the builder was created with.
func (b *Builder) Consignment() *config.Consignment {
	return b.c
}

// Build returns the document tree for one form. Callers must not invoke it
// when both the header and the item list are empty.
func (b *Builder) Build(h types.Header, items []types.Item) *x.Node {
	formInvoiceForeign := FormatAmount(ComputeFormTotal(items, InvoiceAmountForeign))

	sad := x.NewNode("SAD",
		b.assessmentNotice(h),
		b.properties(h),
		b.identification(h),
		b.traders(h),
		b.declarant(h),
		b.generalInformation(h),
		b.transport(h),
		b.financial(h),
		b.transit(h),
		b.valuation(h, formInvoiceForeign, len(items)),
	)

	itemsNode := x.NewNode("Items")
	for _, it := range items {
		itemsNode.Append(b.item(it))
	}

	return x.NewNode("ASYCUDA", sad, itemsNode)
}

// =============================================================================
// RESOLUTION HELPERS
// =============================================================================

// fixed resolves a leaf backed by a consignment constant. The record value
// and fallback only apply when the constant is unset.
func fixed(value string, record types.Text, fallback string) string {
	if v, ok := types.NewText(value).Value(); ok {
		return v
	}
	return record.Or(fallback)
}

// constant resolves a leaf with no record column behind it.
func constant(value string) string {
	return types.NewText(value).String()
}

// =============================================================================
// SAD SECTIONS
// =============================================================================

func (b *Builder) assessmentNotice(h types.Header) *x.Node {
	return x.NewNode("Assessment_notice",
		x.Leaf("Total_item_taxes", fixed(b.c.Totals.ItemTaxes, h.TotalItemTaxes, "")),
		x.NewNode("Items_taxes",
			x.NewNode("Item_tax",
				x.Leaf("Tax_code", h.TaxCode.Or(defaultTaxCode)),
				x.Leaf("Tax_description", h.TaxDescription.Or(defaultTaxDescription)),
				x.Leaf("Tax_amount", fixed(b.c.Totals.ItemTaxes, h.TaxAmount, "")),
				x.Leaf("Tax_mop", h.TaxMop.Or(defaultModeOfPayment)),
			),
		),
	)
}

func (b *Builder) properties(h types.Header) *x.Node {
	return x.NewNode("Properties",
		x.Leaf("Sad_flow", h.SadFlow.Or(defaultSadFlow)),
		x.NewNode("Forms",
			x.Leaf("Number_of_the_form", h.NumberOfTheForm.Or(defaultFormNumber)),
			x.Leaf("Total_number_of_forms", fixed(b.c.Totals.Forms, h.TotalNumberOfForms, "")),
		),
		x.Leaf("Selected_page", h.SelectedPage.Or(defaultSelectedPage)),
	)
}

func (b *Builder) identification(h types.Header) *x.Node {
	return x.NewNode("Identification",
		x.Leaf("Manifest_reference_number", fixed(b.c.ManifestReference, h.ManifestReferenceNumber, "")),
		x.NewNode("Office_segment",
			x.Leaf("Customs_clearance_office_code", h.CustomsClearanceOfficeCode.Or(defaultOfficeCode)),
			x.Leaf("Customs_clearance_office_name", h.CustomsClearanceOfficeName.Or(defaultOfficeName)),
		),
		x.NewNode("Type",
			x.Leaf("Type_of_declaration", h.TypeOfDeclaration.Or(defaultDeclarationType)),
			x.Leaf("General_procedure_code", h.GeneralProcedureCode.Or(defaultProcedureCode)),
		),
	)
}

func (b *Builder) traders(h types.Header) *x.Node {
	return x.NewNode("Traders",
		x.NewNode("Exporter",
			x.Leaf("Exporter_code", h.ExporterCode.String()),
			x.Leaf("Exporter_name", h.ExporterName.String()),
		),
		x.NewNode("Consignee",
			x.Leaf("Consignee_code", h.ConsigneeCode.Or(defaultConsigneeCode)),
			x.Leaf("Consignee_name", h.ConsigneeName.Or(defaultConsigneeName)),
		),
		x.NewNode("Financial",
			x.Leaf("Financial_code", h.FinancialCode.String()),
			x.Leaf("Financial_name", h.FinancialName.String()),
		),
	)
}

func (b *Builder) declarant(h types.Header) *x.Node {
	return x.NewNode("Declarant",
		x.Leaf("Declarant_code", h.DeclarantCode.Or(defaultDeclarantCode)),
		x.Leaf("Declarant_name", h.DeclarantName.Or(defaultDeclarantName)),
		x.Leaf("Declarant_representative", h.DeclarantRepresentative.Or(defaultDeclarantRepresentative)),
		x.NewNode("Reference",
			x.Leaf("Year", h.ReferenceYear.Or(defaultReferenceYear)),
			x.Leaf("Number", h.ReferenceNumber.String()),
		),
	)
}

func (b *Builder) generalInformation(h types.Header) *x.Node {
	return x.NewNode("General_information",
		x.NewNode("Country",
			x.Leaf("Country_first_destination", h.CountryFirstDestination.Or(defaultCountryCode)),
			x.Leaf("Trading_country", h.TradingCountry.Or(defaultCountryCode)),
			x.Leaf("Country_of_origin_name", h.CountryOfOriginName.Or(defaultCountryName)),
			x.NewNode("Export",
				x.Leaf("Export_country_code", h.ExportCountryCode.Or(defaultCountryCode)),
				x.Leaf("Export_country_name", h.ExportCountryName.Or(defaultCountryName)),
				x.Leaf("Export_country_region", h.ExportCountryRegion.String()),
			),
			x.NewNode("Destination",
				x.Leaf("Destination_country_code", h.DestinationCountryCode.Or(defaultDestinationCode)),
				x.Leaf("Destination_country_name", h.DestinationCountryName.Or(defaultDestinationName)),
				x.Leaf("Destination_country_region", h.DestinationCountryRegion.String()),
			),
		),
		x.Leaf("Value_details", fixed(b.c.Totals.Cost, h.ValueDetails, "")),
		x.Leaf("CAP", h.CAP.String()),
	)
}

func (b *Builder) transport(h types.Header) *x.Node {
	return x.NewNode("Transport",
		x.Leaf("Container_flag", fixed(b.c.ContainerFlag, h.ContainerFlag, "")),
		x.Leaf("Location_of_goods", h.LocationOfGoods.Or(defaultLocationOfGoods)),
		x.Leaf("Location_of_goods_address", h.LocationOfGoodsAddress.Or(defaultLocationAddress)),
		x.NewNode("Means_of_transport",
			x.NewNode("Departure_arrival_information",
				x.Leaf("Identity", h.DepartureIdentity.Or(defaultCarrier)),
				x.Leaf("Nationality", h.DepartureNationality.Or(defaultCarrierNationality)),
			),
			x.NewNode("Border_information",
				x.Leaf("Identity", h.BorderIdentity.String()),
				x.Leaf("Nationality", h.BorderNationality.String()),
				x.Leaf("Mode", h.BorderMode.Or(defaultBorderMode)),
			),
		),
		x.NewNode("Delivery_terms",
			x.Leaf("Code", fixed(b.c.DeliveryTermsCode, h.DeliveryTermsCode, "")),
			x.Leaf("Place", h.DeliveryTermsPlace.Or(defaultDeliveryPlace)),
		),
		x.NewNode("Border_office",
			x.Leaf("Code", h.BorderOfficeCode.Or(defaultOfficeCode)),
			x.Leaf("Name", h.BorderOfficeName.Or(defaultOfficeName)),
		),
		x.NewNode("Place_of_loading",
			x.Leaf("Code", h.PlaceOfLoadingCode.Or(defaultLoadingCode)),
			x.Leaf("Name", h.PlaceOfLoadingName.Or(defaultLoadingName)),
		),
	)
}

func (b *Builder) financial(h types.Header) *x.Node {
	return x.NewNode("Financial",
		x.Leaf("Deffered_payment_reference", h.DefferedPaymentReference.String()),
		x.Leaf("Mode_of_payment", h.ModeOfPayment.Or(defaultPaymentMode)),
		x.NewNode("Financial_transaction",
			x.Leaf("Code_1", h.TransactionCode1.Or(defaultTransactionCode)),
			x.Leaf("Code_2", h.TransactionCode2.Or(defaultTransactionCode)),
		),
		x.NewNode("Bank",
			x.Leaf("Branch", h.BankBranch.String()),
			x.Leaf("Reference", h.BankReference.String()),
		),
		x.NewNode("Terms",
			x.Leaf("Code", h.TermsCode.String()),
			x.Leaf("Description", h.TermsDescription.String()),
		),
		x.NewNode("Amounts",
			x.Leaf("Global_taxes", h.GlobalTaxes.Or(defaultZero)),
			x.Leaf("Totals_taxes", fixed(b.c.Totals.ItemTaxes, h.TotalsTaxes, "")),
		),
		x.NewNode("Guarantee",
			x.Leaf("Amount", h.GuaranteeAmount.Or(defaultZero)),
		),
	)
}

func (b *Builder) transit(h types.Header) *x.Node {
	return x.NewNode("Transit",
		x.Leaf("Result_of_control", h.ResultOfControl.String()),
	)
}

// valuation carries the form level amounts. The invoice foreign amount is
// the only value derived from the items; the rest are consignment facts.
func (b *Builder) valuation(h types.Header, invoiceForeign string, itemCount int) *x.Node {
	fv := b.c.FormValuation
	currency := constant(b.c.Currency.Code)
	rate := constant(b.c.Currency.Rate)

	return x.NewNode("Valuation",
		x.Leaf("Calculation_working_mode", constant(b.c.CalculationWorkingMode)),
		x.Leaf("Total_cost", fixed(b.c.Totals.Cost, h.TotalCost, "")),
		x.Leaf("Total_cif", fixed(b.c.Totals.CIF, h.TotalCif, "")),
		b.costSection("Invoice", constant(fv.InvoiceNational), invoiceForeign, currency, rate),
		b.costSection("External_freight", constant(fv.ExternalFreight.National), constant(fv.ExternalFreight.Foreign), currency, rate),
		b.costSection("Internal_freight", defaultZero, defaultZero, "", defaultZero),
		b.costSection("Insurance", constant(fv.Insurance.National), constant(fv.Insurance.Foreign), currency, rate),
		b.costSection("Other_cost", constant(fv.OtherCost.National), constant(fv.OtherCost.Foreign), currency, rate),
		b.costSection("Deduction", defaultZero, defaultZero, currency, rate),
		x.NewNode("Total",
			x.Leaf("Total_invoice", fixed(b.c.Totals.Invoice, h.TotalInvoice, "")),
			// Historically filled with the item count rather than a weight.
			x.Leaf("Total_weight", strconv.Itoa(itemCount)),
		),
	)
}

// costSection is the five-leaf block shared by every valuation category.
func (b *Builder) costSection(name, national, foreign, code, rate string) *x.Node {
	return x.NewNode(name,
		x.Leaf("Amount_national_currency", national),
		x.Leaf("Amount_foreign_currency", foreign),
		x.Leaf("Currency_code", code),
		x.Leaf("Currency_name", constant(b.c.Currency.Name)),
		x.Leaf("Currency_rate", rate),
	)
}

// =============================================================================
// ITEM SECTIONS
// =============================================================================

func (b *Builder) item(it types.Item) *x.Node {
	return x.NewNode("Item",
		b.packages(it),
		b.tariff(it),
		b.goodsDescription(it),
		b.valuationItem(it),
		b.previousDocument(it),
		b.taxation(it),
	)
}

func (b *Builder) packages(it types.Item) *x.Node {
	return x.NewNode("Packages",
		x.Leaf("Number_of_packages", it.NumberOfPackages.String()),
		x.Leaf("Marks1_of_packages", it.Marks1OfPackages.String()),
		x.Leaf("Marks2_of_packages", it.Marks2OfPackages.String()),
		x.Leaf("Kind_of_packages_code", it.KindOfPackagesCode.Or(defaultPackageKindCode)),
		x.Leaf("Kind_of_packages_name", it.KindOfPackagesName.Or(defaultPackageKindName)),
	)
}

func (b *Builder) tariff(it types.Item) *x.Node {
	return x.NewNode("Tariff",
		x.Leaf("Extended_customs_procedure", it.ExtendedCustomsProcedure.Or(defaultExtendedProc)),
		x.Leaf("National_customs_procedure", it.NationalCustomsProcedure.Or(defaultNationalProc)),
		x.Leaf("Preference_code", it.PreferenceCode.String()),
		x.NewNode("Harmonized_system",
			x.Leaf("Commodity_code", it.CommodityCode.String()),
			x.Leaf("Precision_4", it.Precision4.String()),
		),
		// Rank 1 is implicit and the only one carrying a unit code.
		supplementaryUnit("",
			x.Leaf("Supplementary_unit_code", it.SupplementaryUnitCode.Or(defaultUnitCode)),
			it.SupplementaryUnitName1.Or(defaultUnitName),
			it.SupplementaryUnitQty1.String(),
		),
		supplementaryUnit("2", nil, it.SupplementaryUnitName2.String(), it.SupplementaryUnitQty2.String()),
		supplementaryUnit("3", nil, it.SupplementaryUnitName3.String(), it.SupplementaryUnitQty3.String()),
		x.NewNode("Quota",
			x.Leaf("Quota_code", it.QuotaCode.String()),
		),
	)
}

// supplementaryUnit builds one unit rank. code is nil for ranks without a
// unit code element.
func supplementaryUnit(rank string, code *x.Node, name, quantity string) *x.Node {
	unit := x.NewNode("Supplementary_unit", x.Leaf("Supplementary_unit_rank", rank))
	if code != nil {
		unit.Append(code)
	}
	return unit.Append(
		x.Leaf("Supplementary_unit_name", name),
		x.Leaf("Supplementary_unit_quantity", quantity),
	)
}

func (b *Builder) goodsDescription(it types.Item) *x.Node {
	return x.NewNode("Goods_description",
		x.Leaf("Country_of_origin_code", it.CountryOfOriginCode.Or(defaultCountryCode)),
		x.Leaf("Description_of_goods", it.DescriptionOfGoods.String()),
		x.Leaf("Commercial_description", it.CommercialDescription.String()),
	)
}

// valuationItem mirrors the form valuation, but the invoice amount is the
// item's own value and the other costs are the per-item constants.
func (b *Builder) valuationItem(it types.Item) *x.Node {
	iv := b.c.ItemValuation
	currency := constant(b.c.Currency.Code)
	rate := constant(b.c.Currency.Rate)

	return x.NewNode("Valuation_item",
		x.Leaf("Rate_of_adjustment", defaultAdjustmentRate),
		x.Leaf("Total_cost_itm", ""),
		x.Leaf("Total_cif_itm", fixed(iv.TotalCIF, it.TotalCifItm, "")),
		x.Leaf("Statistical_value", fixed(iv.StatisticalValue, it.StatisticalValue, "")),
		x.Leaf("Alpha_coeficient_of_apportionment", constant(iv.AlphaCoefficient)),
		x.NewNode("Weight",
			x.Leaf("Gross_weight_itm", it.GrossWeight.Or(defaultItemWeight)),
			x.Leaf("Net_weight_itm", it.NetWeight.Or(defaultItemWeight)),
		),
		b.costSection("Invoice", "", it.InvoiceAmountForeign.String(), currency, rate),
		b.costSection("External_freight", constant(iv.ExternalFreight.National), constant(iv.ExternalFreight.Foreign), currency, rate),
		b.costSection("Internal_freight", defaultZero, "", "", defaultZero),
		b.costSection("Insurance", constant(iv.Insurance.National), constant(iv.Insurance.Foreign), currency, rate),
		b.costSection("Other_cost", constant(iv.OtherCost.National), constant(iv.OtherCost.Foreign), currency, rate),
		b.costSection("Deduction", defaultZero, defaultZero, currency, rate),
	)
}

func (b *Builder) previousDocument(it types.Item) *x.Node {
	return x.NewNode("Previous_document",
		x.Leaf("Summary_declaration", it.SummaryDeclaration.String()),
		x.Leaf("Summary_declaration_sl", it.SummaryDeclarationSl.Or(defaultSummarySl)),
	)
}

func (b *Builder) taxation(it types.Item) *x.Node {
	d := b.c.Duty
	return x.NewNode("Taxation",
		x.Leaf("Item_taxes_amount", constant(d.Amount)),
		x.Leaf("Item_taxes_mode_of_payment", defaultItemTaxesPayment),
		x.NewNode("Taxation_line",
			x.Leaf("Duty_tax_code", constant(d.Code)),
			x.Leaf("Duty_tax_base", constant(d.Base)),
			x.Leaf("Duty_tax_rate", constant(d.Rate)),
			x.Leaf("Duty_tax_amount", fixed(d.Amount, it.DutyTaxAmount, "")),
			x.Leaf("Duty_tax_MP", defaultDutyTaxMP),
		),
	)
}
