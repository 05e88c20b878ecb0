package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONSIGNMENT CONSTANTS
// =============================================================================
//
// A Consignment holds the commercial facts of one known shipment. Every form
// converted in a run describes part of the same consignment, so these values
// are shared by every file and every item. Where a leaf of the document is
// backed by a consignment value, that value wins over whatever the workbook
// carries for the same field.
//
// The zero value is not useful; start from DefaultConsignment or
// LoadConsignment. A Consignment must not be modified once a run has started.

// Amount is a pair of national and foreign currency amounts.
type Amount struct {
	National string `yaml:"national"`
	Foreign  string `yaml:"foreign"`
}

// Totals are the consignment-wide aggregates reported on every form.
type Totals struct {
	Invoice   string `yaml:"invoice"`
	CIF       string `yaml:"cif"`
	Cost      string `yaml:"cost"`
	ItemTaxes string `yaml:"item_taxes"`
	Forms     string `yaml:"forms"`
}

// Currency describes the invoicing currency.
type Currency struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
	Rate string `yaml:"rate"`
}

// FormValuation are the cost amounts reported in the declaration's
// valuation section. The invoice foreign amount is not listed here: it is
// computed from each form's items.
type FormValuation struct {
	InvoiceNational string `yaml:"invoice_national"`
	ExternalFreight Amount `yaml:"external_freight"`
	Insurance       Amount `yaml:"insurance"`
	OtherCost       Amount `yaml:"other_cost"`
}

// ItemValuation are the per-item amounts repeated on every item.
type ItemValuation struct {
	ExternalFreight  Amount `yaml:"external_freight"`
	Insurance        Amount `yaml:"insurance"`
	OtherCost        Amount `yaml:"other_cost"`
	TotalCIF         string `yaml:"total_cif"`
	StatisticalValue string `yaml:"statistical_value"`
	AlphaCoefficient string `yaml:"alpha_coefficient"`
}

// Duty is the single tax line applied to every item.
type Duty struct {
	Code   string `yaml:"code"`
	Base   string `yaml:"base"`
	Rate   string `yaml:"rate"`
	Amount string `yaml:"amount"`
}

// Consignment is the constants table passed to the document builder.
type Consignment struct {
	ManifestReference      string        `yaml:"manifest_reference"`
	CalculationWorkingMode string        `yaml:"calculation_working_mode"`
	ContainerFlag          string        `yaml:"container_flag"`
	DeliveryTermsCode      string        `yaml:"delivery_terms_code"`
	Totals                 Totals        `yaml:"totals"`
	Currency               Currency      `yaml:"currency"`
	FormValuation          FormValuation `yaml:"form_valuation"`
	ItemValuation          ItemValuation `yaml:"item_valuation"`
	Duty                   Duty          `yaml:"duty"`
}

// DefaultConsignment returns the constants of consignment LV02 2025 6241.
func DefaultConsignment() *Consignment {
	return &Consignment{
		ManifestReference:      "LV02 2025 6241",
		CalculationWorkingMode: "0",
		ContainerFlag:          "False",
		DeliveryTermsCode:      "DDP",
		Totals: Totals{
			Invoice:   "2006.64",
			CIF:       "4212.99",
			Cost:      "621.1",
			ItemTaxes: "347.75",
			Forms:     "16",
		},
		Currency: Currency{
			Code: "USD",
			Name: "Geen vreemde valuta",
			Rate: "1.79",
		},
		FormValuation: FormValuation{
			InvoiceNational: "3591.89",
			ExternalFreight: Amount{National: "509.24", Foreign: "17.27"},
			Insurance:       Amount{National: "62.26", Foreign: "1.00875"},
			OtherCost:       Amount{National: "49.6"},
		},
		ItemValuation: ItemValuation{
			ExternalFreight:  Amount{National: "8.56", Foreign: "4.78"},
			Insurance:        Amount{National: "1.04", Foreign: "0.58"},
			OtherCost:        Amount{National: "0.84", Foreign: "0.47"},
			TotalCIF:         "70.8",
			StatisticalValue: "71",
			AlphaCoefficient: "0.0168042100227245",
		},
		Duty: Duty{
			Code:   "IR",
			Base:   "71",
			Rate:   "6",
			Amount: "4.3",
		},
	}
}

// LoadConsignment reads a YAML file and overlays it onto the defaults.
// Keys missing from the file keep their default value.
//
// PARAMETERS:
//   - path: The consignment file. An empty path returns the defaults.
//
// RETURNS:
//   - The consignment constants.
//   - An error if the file cannot be read, parsed or fails validation.
func LoadConsignment(path string) (*Consignment, error) {
	c := DefaultConsignment()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read consignment file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse consignment file: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid consignment file %s: %w", path, err)
	}

	return c, nil
}

// Validate checks the values every document depends on.
func (c *Consignment) Validate() error {
	if strings.TrimSpace(c.ManifestReference) == "" {
		return fmt.Errorf("manifest_reference is required")
	}
	if strings.TrimSpace(c.Currency.Rate) == "" {
		return fmt.Errorf("currency.rate is required")
	}
	return nil
}
