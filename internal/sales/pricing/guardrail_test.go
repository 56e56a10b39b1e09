package pricing

import "testing"

func TestGuardrailThresholdBoundary(t *testing.T) {
	g := NewGuardrail(SalesPolicy{MaxDiscountPercentWithoutApproval: 10})

	res := g.Check([]Line{{ProductID: "p1", Quantity: 1, UnitPrice: 100, DiscountPercent: 10}}, OnViolationReject)
	if !res.OK || res.RequiresApproval || len(res.Violations) != 0 {
		t.Fatalf("discount equal to threshold must pass, got %+v", res)
	}

	res = g.Check([]Line{{ProductID: "p1", Quantity: 1, UnitPrice: 100, DiscountPercent: 10.01}}, OnViolationReject)
	if res.OK || !res.RequiresApproval || len(res.Violations) != 1 {
		t.Fatalf("discount above threshold must violate, got %+v", res)
	}
}

func TestGuardrailFlagModeProceeds(t *testing.T) {
	g := NewGuardrail(SalesPolicy{MaxDiscountPercentWithoutApproval: 10})
	res := g.Check([]Line{{ProductID: "p1", Quantity: 5, UnitPrice: 100, DiscountPercent: 15}}, OnViolationFlag)
	if !res.OK {
		t.Fatalf("flag mode must not block creation")
	}
	if !res.RequiresApproval {
		t.Fatalf("flag mode must still require approval")
	}
}

func TestGuardrailDefaultsThreshold(t *testing.T) {
	g := NewGuardrail(SalesPolicy{})
	res := g.Check([]Line{{DiscountPercent: 11}}, OnViolationFlag)
	if !res.RequiresApproval {
		t.Fatalf("zero-valued policy should fall back to default threshold")
	}
}

func TestTierDiscountPicksLargestCoveredTier(t *testing.T) {
	policy := SalesPolicy{TieredDiscounts: []Tier{
		{MinTotal: 10000, DiscountPercent: 2},
		{MinTotal: 50000, DiscountPercent: 5},
		{MinTotal: 100000, DiscountPercent: 8},
	}}
	if got := policy.TierDiscount(60000, 0); got != 3000 {
		t.Fatalf("expected tier discount 3000 got %v", got)
	}
}

func TestTierDiscountMonotonic(t *testing.T) {
	policy := SalesPolicy{TieredDiscounts: []Tier{{MinTotal: 10000, DiscountPercent: 2}}}
	// Manually entered 500 beats the 2% (= 240) tier candidate.
	if got := policy.TierDiscount(12000, 500); got != 500 {
		t.Fatalf("tier discount must never lower an existing special discount, got %v", got)
	}
}

func TestTierDiscountBelowAllTiers(t *testing.T) {
	policy := SalesPolicy{TieredDiscounts: []Tier{{MinTotal: 10000, DiscountPercent: 2}}}
	if got := policy.TierDiscount(9999.99, 0); got != 0 {
		t.Fatalf("expected no tier discount got %v", got)
	}
}
