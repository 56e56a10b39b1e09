package quotations

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winrichdynamic/crm-service/internal/sales/pricing"
)

func newTestRouter(f *fixture) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, f.service, nil)
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateEndpointReturnsComputedTotals(t *testing.T) {
	f := newFixture(pricing.DefaultPolicy())
	router := newTestRouter(f)

	rec := postJSON(t, router, "/quotations", validRequest(0), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result CreateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 500.00, result.Quotation.GrandTotal)
	assert.True(t, result.ApprovalRecorded)
	assert.NotEmpty(t, result.Quotation.DocNumber)
}

func TestCreateEndpointValidation(t *testing.T) {
	f := newFixture(pricing.DefaultPolicy())
	router := newTestRouter(f)

	rec := postJSON(t, router, "/quotations", map[string]any{"customerName": "x"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation failed", body.Error)
	assert.Contains(t, body.Details, "Items")
}

func TestDealPathRejectsGuardrailViolation(t *testing.T) {
	f := newFixture(pricing.SalesPolicy{MaxDiscountPercentWithoutApproval: 10})
	router := newTestRouter(f)

	rec := postJSON(t, router, "/deals/quotations", validRequest(25), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "discount policy violated")

	// The quotation path flags the same payload instead of rejecting.
	rec = postJSON(t, router, "/quotations", validRequest(25), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var result CreateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, ApprovalPending, result.Quotation.ApprovalStatus)
}

func TestCreateEndpointChannelProvenance(t *testing.T) {
	f := newFixture(pricing.DefaultPolicy())
	router := newTestRouter(f)

	rec := postJSON(t, router, "/quotations", validRequest(0), map[string]string{
		"X-Request-Channel": "LINE",
		"X-Actor":           "linebot",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var result CreateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotNil(t, result.Quotation.Notes)
	assert.Contains(t, *result.Quotation.Notes, "created via LINE by linebot")
}

func TestListEndpointPagination(t *testing.T) {
	f := newFixture(pricing.DefaultPolicy())
	router := newTestRouter(f)

	for i := 0; i < 3; i++ {
		rec := postJSON(t, router, "/quotations", validRequest(0), nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	get := func(path string) (listing struct {
		Quotations []Quotation `json:"quotations"`
		Total      int         `json:"total"`
		Limit      int         `json:"limit"`
		Offset     int         `json:"offset"`
	}) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
		return listing
	}

	page := get("/quotations?limit=1&offset=2")
	assert.Len(t, page.Quotations, 1)
	assert.Equal(t, 3, page.Total, "total counts all matches, not just the page")
	assert.Equal(t, 1, page.Limit)
	assert.Equal(t, 2, page.Offset)

	// Newest first: offset 2 of three documents is the earliest one.
	assert.Equal(t, "QT"+time.Now().Format("200601")+"001", page.Quotations[0].DocNumber)

	past := get("/quotations?limit=1&offset=99")
	assert.Empty(t, past.Quotations)
	assert.Equal(t, 3, past.Total)

	// Malformed values fall back to the defaults instead of erroring.
	loose := get("/quotations?limit=abc&offset=-4")
	assert.Len(t, loose.Quotations, 3)
	assert.Equal(t, 50, loose.Limit)
	assert.Equal(t, 0, loose.Offset)
}

func TestGetEndpointNotFound(t *testing.T) {
	f := newFixture(pricing.DefaultPolicy())
	router := newTestRouter(f)

	req := httptest.NewRequest(http.MethodGet, "/quotations/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/quotations/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendEndpointConflictWhilePending(t *testing.T) {
	f := newFixture(pricing.SalesPolicy{MaxDiscountPercentWithoutApproval: 10})
	router := newTestRouter(f)

	rec := postJSON(t, router, "/quotations", validRequest(15), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var result CreateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	id := result.Quotation.ID.String()

	rec = postJSON(t, router, "/quotations/"+id+"/send", nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = postJSON(t, router, "/quotations/"+id+"/approval/approve", map[string]string{"note": "ok"}, map[string]string{"X-Actor": "manager"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, router, "/quotations/"+id+"/send", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
