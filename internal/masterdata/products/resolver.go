package products

import "strings"

// NormalizeOptions trims keys and values and drops empty pairs. An empty map
// normalizes to nil so "no options" compares equal regardless of how the
// caller spelled it.
func NormalizeOptions(options map[string]string) map[string]string {
	if len(options) == 0 {
		return nil
	}
	out := make(map[string]string, len(options))
	for k, v := range options {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ResolveSKU finds the display SKU for a line item against the live catalog.
// Precedence, first match wins:
//  1. a literal SKU already carried by the item;
//  2. an active variant whose options exactly match the item's normalized
//     options, gated on unit label when the variant declares one;
//  3. the unit-level SKU for the item's unit label;
//  4. the product default SKU.
//
// The function is pure; it is invoked at render/export time so the result
// reflects the current catalog, not a creation-time snapshot.
func ResolveSKU(p Product, unitLabel string, selectedOptions map[string]string, literalSKU string) string {
	if literalSKU != "" {
		return literalSKU
	}

	opts := NormalizeOptions(selectedOptions)
	if opts != nil {
		for _, v := range p.SKUVariants {
			if !v.IsActive || v.SKU == "" {
				continue
			}
			if v.UnitLabel != "" && v.UnitLabel != unitLabel {
				continue
			}
			if optionsEqual(NormalizeOptions(v.Options), opts) {
				return v.SKU
			}
		}
	}

	for _, u := range p.Units {
		if u.Label == unitLabel && u.SKU != "" {
			return u.SKU
		}
	}

	return p.SKU
}

func optionsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
