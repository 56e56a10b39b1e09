package report

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winrichdynamic/crm-service/internal/sales/quotations"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	data map[uuid.UUID]*quotations.RenderData
}

func (f *fakeSource) RenderData(_ context.Context, id uuid.UUID) (*quotations.RenderData, error) {
	d, ok := f.data[id]
	if !ok {
		return nil, quotations.ErrNotFound
	}
	return d, nil
}

func sampleRenderData() *quotations.RenderData {
	item := quotations.QuotationItem{
		ProductID:   uuid.New(),
		ProductName: "Widget",
		Quantity:    3,
		Unit:        "ชิ้น",
		UnitPrice:   500,
		TotalPrice:  1500,
	}
	return &quotations.RenderData{
		Quotation: quotations.Quotation{
			ID:           uuid.New(),
			DocNumber:    "QT202508001",
			CustomerName: "บริษัท ตัวอย่าง จำกัด",
			Items:        []quotations.QuotationItem{item},
			Subtotal:     1500,
			TotalAmount:  1500,
			VATRate:      7,
			VATAmount:    98.13,
			GrandTotal:   1500,
			Currency:     "THB",
			Status:       quotations.StatusDraft,
			CreatedAt:    time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		},
		RenderItems: []quotations.RenderItem{
			{QuotationItem: item, DisplaySKU: "W-1", TotalPriceText: "฿1,500.00"},
		},
		SubtotalText:      "฿1,500.00",
		TotalDiscountText: "฿0.00",
		VATAmountText:     "฿98.13",
		GrandTotalText:    "฿1,500.00",
	}
}

func TestQuotationHTML(t *testing.T) {
	html, err := QuotationHTML(sampleRenderData())
	require.NoError(t, err)

	assert.Contains(t, html, "QT202508001")
	assert.Contains(t, html, "บริษัท ตัวอย่าง จำกัด")
	assert.Contains(t, html, "W-1")
	assert.Contains(t, html, "฿1,500.00")
	assert.Contains(t, html, "VAT (7%, included)")
}

func TestQuotationPDFEndpoint(t *testing.T) {
	gotenberg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/html" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer gotenberg.Close()

	data := sampleRenderData()
	source := &fakeSource{data: map[uuid.UUID]*quotations.RenderData{data.ID: data}}
	h := NewHandler(NewClient(gotenberg.URL), source, testLogger())

	r := chi.NewRouter()
	h.MountRoutes(r)

	t.Run("renders pdf", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotations/"+data.ID.String()+"/pdf", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "QT202508001.pdf")
		assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
	})

	t.Run("unknown quotation", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotations/"+uuid.NewString()+"/pdf", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotations/not-a-uuid/pdf", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestQuotationPDFGotenbergDown(t *testing.T) {
	data := sampleRenderData()
	source := &fakeSource{data: map[uuid.UUID]*quotations.RenderData{data.ID: data}}
	h := NewHandler(NewClient("http://127.0.0.1:1"), source, testLogger())

	r := chi.NewRouter()
	h.MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotations/"+data.ID.String()+"/pdf", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
