package products

import (
	"time"

	"github.com/google/uuid"
)

// Unit is a sellable packaging of a product, optionally carrying its own SKU.
type Unit struct {
	Label string `json:"label"`
	SKU   string `json:"sku,omitempty"`
}

// SKUVariant maps a unit plus a combination of option values to a concrete
// stock-keeping unit. UnitLabel is optional; when set it restricts the
// variant to items sold in that unit.
type SKUVariant struct {
	SKU       string            `json:"sku,omitempty"`
	UnitLabel string            `json:"unitLabel,omitempty"`
	Options   map[string]string `json:"options"`
	IsActive  bool              `json:"isActive"`
}

// Product represents a catalog entry with its unit list and SKU variants.
type Product struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	SKU         string       `json:"sku,omitempty"`
	Price       float64      `json:"price"`
	Units       []Unit       `json:"units,omitempty"`
	SKUVariants []SKUVariant `json:"skuVariants,omitempty"`
	IsActive    bool         `json:"isActive"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
