// Package pricing implements the tax-inclusive price split and per-line
// discount arithmetic shared by quotations and payment schedules.
package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// Scale is the monetary rounding scale (two decimal places, half-up).
const Scale = 2

var hundred = decimal.NewFromInt(100)

// SplitInclusive splits a tax-inclusive amount into its base and tax parts.
// The base is rounded first and the tax is derived by subtraction, so the
// pair always sums back to the input exactly.
func SplitInclusive(amountIncludingTax, taxPercent decimal.Decimal) (base, tax decimal.Decimal) {
	amountIncludingTax = amountIncludingTax.Round(Scale)
	if taxPercent.LessThanOrEqual(decimal.Zero) {
		return amountIncludingTax, decimal.Zero
	}
	base = amountIncludingTax.Mul(hundred).Div(hundred.Add(taxPercent)).Round(Scale)
	tax = amountIncludingTax.Sub(base)
	return base, tax
}

// LineBreakdown carries every derived figure for a single quotation line.
type LineBreakdown struct {
	Gross             decimal.Decimal
	DiscountAmount    decimal.Decimal
	PriceIncludingGST decimal.Decimal
	PriceBeforeGST    decimal.Decimal
	GSTAmount         decimal.Decimal
}

// ComputeLine derives the full breakdown for a line. The unit price is
// tax inclusive; the discount applies to the gross amount before the
// base/GST split runs on the remainder.
func ComputeLine(quantity int64, unitPrice, discountPercent, gstPercent decimal.Decimal) LineBreakdown {
	gross := unitPrice.Mul(decimal.NewFromInt(quantity)).Round(Scale)
	discount := gross.Mul(discountPercent).Div(hundred).Round(Scale)
	net := gross.Sub(discount)
	base, tax := SplitInclusive(net, gstPercent)
	return LineBreakdown{
		Gross:             gross,
		DiscountAmount:    discount,
		PriceIncludingGST: net,
		PriceBeforeGST:    base,
		GSTAmount:         tax,
	}
}

// Portion returns total*percent/100 rounded to the monetary scale. Used for
// payment schedule step amounts.
func Portion(total, percent decimal.Decimal) decimal.Decimal {
	return total.Mul(percent).Div(hundred).Round(Scale)
}

// FromFloat converts an externally supplied float into a monetary decimal.
// NaN and infinities collapse to zero rather than poisoning the totals.
func FromFloat(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
