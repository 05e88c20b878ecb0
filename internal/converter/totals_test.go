package converter

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/types"
)

func invoiceItems(values ...string) []types.Item {
	items := make([]types.Item, len(values))
	for i, v := range values {
		items[i].Set("Invoice Amount_foreign_currency", v)
	}
	return items
}

func TestComputeFormTotal(t *testing.T) {
	tests := []struct {
		name  string
		items []types.Item
		want  float64
	}{
		{"empty list", nil, 0},
		{"mixed values", invoiceItems("10.5", "", "abc", "4.5"), 15.0},
		{"placeholders", invoiceItems("nan", "None", "2"), 2},
		{"non-finite", invoiceItems("inf", "-Inf", "1.25"), 1.25},
		{"negative", invoiceItems("-3", "5"), 2},
		{"absent field", []types.Item{{}, {}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeFormTotal(tt.items, InvoiceAmountForeign))
		})
	}
}

func TestComputeFormTotal_OtherField(t *testing.T) {
	var a, b types.Item
	a.Set("Gross_weight_itm", "1.5")
	b.Set("Gross_weight_itm", "2")

	got := ComputeFormTotal([]types.Item{a, b}, func(it types.Item) types.Text { return it.GrossWeight })
	assert.Equal(t, 3.5, got)
}

func TestComputeFormTotal_NoRounding(t *testing.T) {
	got := ComputeFormTotal(invoiceItems("0.1", "0.2"), InvoiceAmountForeign)
	assert.Equal(t, 0.1+0.2, got)
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{100, "100.0"},
		{15, "15.0"},
		{10.25, "10.25"},
		{2006.64, "2006.64"},
		{-4, "-4.0"},
		{0.1 + 0.2, "0.30000000000000004"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatAmount(tt.in)
			assert.Equal(t, tt.want, got)

			parsed, err := strconv.ParseFloat(got, 64)
			assert.NoError(t, err)
			assert.False(t, math.IsNaN(parsed))
			assert.Equal(t, tt.in, parsed)
		})
	}
}
