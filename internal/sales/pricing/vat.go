package pricing

// ExtractVAT returns the tax embedded inside a VAT-inclusive gross amount.
// The quoted price already contains tax: the ex-tax base is gross minus the
// returned value. Callers must never add the result back on top of gross.
func ExtractVAT(gross, ratePercent float64) float64 {
	if ratePercent <= 0 {
		return 0
	}
	return Round2(gross * ratePercent / (100 + ratePercent))
}
