package pricing

// DefaultMaxDiscountPercent applies when no sales policy has been configured.
const DefaultMaxDiscountPercent = 10

// Tier grants an extra document-level discount once the subtotal reaches
// MinTotal.
type Tier struct {
	MinTotal        float64 `json:"minTotal"`
	DiscountPercent float64 `json:"discountPercent"`
}

// SalesPolicy is the read-only discount policy injected into the guardrail
// and the quotation builder.
type SalesPolicy struct {
	MaxDiscountPercentWithoutApproval float64 `json:"maxDiscountPercentWithoutApproval"`
	TieredDiscounts                   []Tier  `json:"tieredDiscounts,omitempty"`
}

// DefaultPolicy returns the policy used when the settings store has no row.
func DefaultPolicy() SalesPolicy {
	return SalesPolicy{MaxDiscountPercentWithoutApproval: DefaultMaxDiscountPercent}
}

// TierDiscount picks the tier with the largest MinTotal still covered by the
// subtotal and applies its percentage. The result only ever raises an
// existing special discount; a manually entered discount is never reduced.
func (p SalesPolicy) TierDiscount(subtotal, existingSpecial float64) float64 {
	var best *Tier
	for i := range p.TieredDiscounts {
		t := p.TieredDiscounts[i]
		if t.MinTotal > subtotal {
			continue
		}
		if best == nil || t.MinTotal > best.MinTotal {
			best = &t
		}
	}
	if best == nil {
		return existingSpecial
	}
	candidate := Round2(subtotal * best.DiscountPercent / 100)
	if candidate > existingSpecial {
		return candidate
	}
	return existingSpecial
}
