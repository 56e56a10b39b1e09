package pricing

import "testing"

func TestExtractVATInclusive(t *testing.T) {
	vat := ExtractVAT(1070, 7)
	if vat != 70.00 {
		t.Fatalf("expected vat 70.00 got %v", vat)
	}
	if base := 1070 - vat; base != 1000.00 {
		t.Fatalf("expected ex-tax base 1000.00 got %v", base)
	}
}

func TestExtractVATZeroRate(t *testing.T) {
	if vat := ExtractVAT(1070, 0); vat != 0 {
		t.Fatalf("expected vat 0 got %v", vat)
	}
}

func TestExtractVATRounds(t *testing.T) {
	// 999.99 * 7 / 107 = 65.42...
	if vat := ExtractVAT(999.99, 7); vat != 65.42 {
		t.Fatalf("expected vat 65.42 got %v", vat)
	}
}
