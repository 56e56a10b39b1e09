package quotations

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/winrichdynamic/crm-service/internal/masterdata/products"
)

// RenderItem is a quotation item enriched for the PDF/export layer.
type RenderItem struct {
	QuotationItem
	DisplaySKU     string `json:"displaySku,omitempty"`
	TotalPriceText string `json:"totalPriceText"`
}

// RenderData is the payload consumed by the rendering layer. Money fields are
// already rounded to two decimals; the renderer never re-rounds.
type RenderData struct {
	Quotation
	RenderItems       []RenderItem `json:"renderItems"`
	SubtotalText      string       `json:"subtotalText"`
	TotalDiscountText string       `json:"totalDiscountText"`
	VATAmountText     string       `json:"vatAmountText"`
	GrandTotalText    string       `json:"grandTotalText"`
}

var thaiPrinter = message.NewPrinter(language.Thai)

func formatTHB(v float64) string {
	return thaiPrinter.Sprintf("฿%.2f", v)
}

// RenderData resolves display SKUs against the live catalog and formats the
// money fields for the export layer. SKU assignment happens here, at render
// time, so it reflects the current catalog rather than a creation-time
// snapshot.
func (s *Service) RenderData(ctx context.Context, id uuid.UUID) (*RenderData, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data := &RenderData{
		Quotation:         *q,
		RenderItems:       make([]RenderItem, len(q.Items)),
		SubtotalText:      formatTHB(q.Subtotal),
		TotalDiscountText: formatTHB(q.TotalDiscount),
		VATAmountText:     formatTHB(q.VATAmount),
		GrandTotalText:    formatTHB(q.GrandTotal),
	}

	for i, item := range q.Items {
		ri := RenderItem{QuotationItem: item, TotalPriceText: formatTHB(item.TotalPrice)}
		product, err := s.lookupProduct(ctx, item)
		if err == nil {
			ri.DisplaySKU = products.ResolveSKU(product, item.Unit, item.SelectedOptions, item.SKU)
		} else {
			// Catalog gaps render a blank SKU, never fail the document.
			ri.DisplaySKU = item.SKU
		}
		data.RenderItems[i] = ri
	}
	return data, nil
}

func (s *Service) lookupProduct(ctx context.Context, item QuotationItem) (products.Product, error) {
	if s.catalog == nil {
		return products.Product{}, errors.New("no catalog configured")
	}
	product, err := s.catalog.Get(ctx, item.ProductID)
	if err != nil {
		if !errors.Is(err, products.ErrNotFound) {
			s.logger.Warn("catalog lookup failed",
				slog.String("product", item.ProductID.String()), slog.Any("error", err))
		}
		return products.Product{}, err
	}
	return product, nil
}
