package converter

import (
	"math"
	"strconv"
	"strings"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/types"
)

// =============================================================================
// TOTALS CALCULATOR
// =============================================================================

// FieldSelector picks one numeric field out of an item.
type FieldSelector func(types.Item) types.Text

// InvoiceAmountForeign selects the item's foreign currency invoice amount.
func InvoiceAmountForeign(it types.Item) types.Text {
	return it.InvoiceAmountForeign
}

// ComputeFormTotal sums one field across all items of a form.
//
// Absent, unparseable and non-finite values count as zero. The sum is never
// rounded and never fails; an empty list totals 0.
func ComputeFormTotal(items []types.Item, field FieldSelector) float64 {
	var total float64
	for _, it := range items {
		total += parseAmount(field(it))
	}
	return total
}

// FormatAmount renders an aggregate with the shortest representation that
// round-trips. Whole numbers keep one decimal: 100 -> "100.0".
func FormatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func parseAmount(t types.Text) float64 {
	s, ok := t.Value()
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
