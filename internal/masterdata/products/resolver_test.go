package products

import "testing"

func testProduct() Product {
	return Product{
		Name: "PU Sealant",
		SKU:  "P-BASE",
		Units: []Unit{
			{Label: "1L", SKU: "P-1L"},
			{Label: "5L", SKU: "P-5L"},
		},
		SKUVariants: []SKUVariant{
			{SKU: "P-5L-RED", UnitLabel: "5L", Options: map[string]string{"color": "red"}, IsActive: true},
			{SKU: "P-5L-OLD", UnitLabel: "5L", Options: map[string]string{"color": "green"}, IsActive: false},
		},
	}
}

func TestResolveSKUPrecedence(t *testing.T) {
	p := testProduct()

	if got := ResolveSKU(p, "5L", nil, ""); got != "P-5L" {
		t.Fatalf("unit fallback: expected P-5L got %q", got)
	}
	if got := ResolveSKU(p, "5L", map[string]string{"color": "red"}, ""); got != "P-5L-RED" {
		t.Fatalf("variant match: expected P-5L-RED got %q", got)
	}
	if got := ResolveSKU(p, "5L", map[string]string{"color": "blue"}, ""); got != "P-5L" {
		t.Fatalf("unmatched options fall back to unit sku, got %q", got)
	}
}

func TestResolveSKULiteralWinsVerbatim(t *testing.T) {
	p := testProduct()
	if got := ResolveSKU(p, "5L", map[string]string{"color": "red"}, "CUSTOM-1"); got != "CUSTOM-1" {
		t.Fatalf("expected literal sku, got %q", got)
	}
}

func TestResolveSKUInactiveVariantSkipped(t *testing.T) {
	p := testProduct()
	if got := ResolveSKU(p, "5L", map[string]string{"color": "green"}, ""); got != "P-5L" {
		t.Fatalf("inactive variant must not match, got %q", got)
	}
}

func TestResolveSKUDefaultFallback(t *testing.T) {
	p := testProduct()
	if got := ResolveSKU(p, "20L", nil, ""); got != "P-BASE" {
		t.Fatalf("expected product default, got %q", got)
	}
}

func TestResolveSKUBlankWhenNothingMatches(t *testing.T) {
	p := Product{Name: "bare"}
	if got := ResolveSKU(p, "5L", nil, ""); got != "" {
		t.Fatalf("expected blank sku, got %q", got)
	}
}

func TestResolveSKUExactKeySet(t *testing.T) {
	p := testProduct()
	// Extra option key means no exact match.
	got := ResolveSKU(p, "5L", map[string]string{"color": "red", "finish": "matte"}, "")
	if got != "P-5L" {
		t.Fatalf("superset of options must not match variant, got %q", got)
	}
}

func TestNormalizeOptions(t *testing.T) {
	got := NormalizeOptions(map[string]string{" color ": " red ", "empty": "  ", "": "x"})
	if len(got) != 1 || got["color"] != "red" {
		t.Fatalf("unexpected normalization result %v", got)
	}
	if NormalizeOptions(map[string]string{}) != nil {
		t.Fatalf("empty map must normalize to nil")
	}
}
