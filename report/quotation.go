package report

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/winrichdynamic/crm-service/internal/sales/quotations"
)

// QuotationSource resolves the render payload for a quotation document.
type QuotationSource interface {
	RenderData(ctx context.Context, id uuid.UUID) (*quotations.RenderData, error)
}

// Handler serves rendered quotation documents.
type Handler struct {
	client     *Client
	quotations QuotationSource
	logger     *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, source QuotationSource, logger *slog.Logger) *Handler {
	return &Handler{client: client, quotations: source, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/quotations/{id}/pdf", h.quotationPDF)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) quotationPDF(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid quotation id", http.StatusBadRequest)
		return
	}

	data, err := h.quotations.RenderData(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("load quotation render data", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	html, err := QuotationHTML(data)
	if err != nil {
		h.logger.Error("build quotation html", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	pdf, err := h.client.ConvertHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render quotation pdf",
			slog.String("quotation", data.DocNumber), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+data.DocNumber+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func isNotFound(err error) bool {
	return errors.Is(err, quotations.ErrNotFound)
}

var quotationTmpl = template.Must(template.New("quotation").Funcs(template.FuncMap{
	"add": func(a, b int) int { return a + b },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.DocNumber}}</title>
<style>
body { font-family: sans-serif; font-size: 12px; color: #222; }
h1 { font-size: 18px; margin-bottom: 2px; }
table { width: 100%; border-collapse: collapse; margin-top: 12px; }
th, td { border: 1px solid #999; padding: 4px 6px; text-align: left; }
th { background: #f0f0f0; }
td.num { text-align: right; }
.totals { margin-top: 10px; width: 40%; margin-left: auto; }
.totals td { border: none; }
.meta { color: #555; }
</style>
</head>
<body>
<h1>ใบเสนอราคา / Quotation {{.DocNumber}}</h1>
<p class="meta">Status: {{.Status}} | Issued: {{.CreatedAt.Format "2006-01-02"}}</p>
<p>
<strong>{{.CustomerName}}</strong><br>
{{with .CustomerTaxID}}Tax ID: {{.}}<br>{{end}}
{{with .CustomerAddress}}{{.}}<br>{{end}}
{{with .CustomerPhone}}Tel: {{.}}{{end}}
</p>
<table>
<tr><th>#</th><th>SKU</th><th>Item</th><th>Qty</th><th>Unit</th><th>Unit Price</th><th>Discount %</th><th>Total</th></tr>
{{range $i, $item := .RenderItems}}
<tr>
<td>{{add $i 1}}</td>
<td>{{$item.DisplaySKU}}</td>
<td>{{$item.ProductName}}{{with $item.Description}}<br><span class="meta">{{.}}</span>{{end}}</td>
<td class="num">{{$item.Quantity}}</td>
<td>{{$item.Unit}}</td>
<td class="num">{{printf "%.2f" $item.UnitPrice}}</td>
<td class="num">{{printf "%.2f" $item.DiscountPercent}}</td>
<td class="num">{{$item.TotalPriceText}}</td>
</tr>
{{end}}
</table>
<table class="totals">
<tr><td>Subtotal</td><td class="num">{{.SubtotalText}}</td></tr>
<tr><td>Discount</td><td class="num">{{.TotalDiscountText}}</td></tr>
<tr><td>VAT ({{printf "%.0f" .VATRate}}%, included)</td><td class="num">{{.VATAmountText}}</td></tr>
<tr><td><strong>Grand Total</strong></td><td class="num"><strong>{{.GrandTotalText}}</strong></td></tr>
</table>
{{with .Notes}}<p class="meta">{{.}}</p>{{end}}
</body>
</html>`))

// QuotationHTML renders the printable quotation document.
func QuotationHTML(data *quotations.RenderData) (string, error) {
	var b strings.Builder
	if err := quotationTmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
