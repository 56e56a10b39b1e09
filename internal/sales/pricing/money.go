// Package pricing implements the monetary rules shared by quotation and deal
// creation: two-decimal rounding, VAT-inclusive tax extraction, and the
// discount guardrail policy.
package pricing

import "math"

// Round2 rounds x to two decimal places, half away from zero. Every monetary
// field passes through here before storage or comparison.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// LineTotal computes a line's contribution to the document subtotal. It is the
// single source of truth for line amounts; recompute through here on every
// mutation so item totals never drift from the subtotal.
func LineTotal(quantity, unitPrice, discountPercent float64) float64 {
	return Round2(quantity * unitPrice * (1 - discountPercent/100))
}
