package quotations

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/winrichdynamic/crm-service/internal/approvals"
	"github.com/winrichdynamic/crm-service/internal/platform/httpx"
	"github.com/winrichdynamic/crm-service/internal/sales/pricing"
)

// Caller identity arrives from the (out-of-scope) auth layer via headers.
const (
	headerActor   = "X-Actor"
	headerChannel = "X-Request-Channel"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	recorder *approvals.Recorder
}

func NewHandler(logger *slog.Logger, service *Service, recorder *approvals.Recorder) *Handler {
	return &Handler{logger: logger, service: service, recorder: recorder}
}

// Create handles the quotation path: guardrail violations are flagged for
// approval, never rejected.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, pricing.OnViolationFlag)
}

// CreateForDeal handles the generic deal path, which rejects outright on a
// guardrail violation.
func (h *Handler) CreateForDeal(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, pricing.OnViolationReject)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, mode pricing.ViolationMode) {
	var req CreateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed JSON", err.Error())
		return
	}

	opts := CreateOptions{
		Channel:     r.Header.Get(headerChannel),
		Actor:       actor(r),
		OnViolation: mode,
	}
	result, err := h.service.Create(r.Context(), req, opts)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quotationID(w, r)
	if !ok {
		return
	}
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListQuotationsRequest{Limit: 50}
	query := r.URL.Query()

	if v := query.Get("customerId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "customerId must be a UUID")
			return
		}
		req.CustomerID = &id
	}
	if v := query.Get("status"); v != "" {
		status := Status(v)
		req.Status = &status
	}
	if v := query.Get("approvalStatus"); v != "" {
		status := ApprovalStatus(v)
		req.ApprovalStatus = &status
	}
	if t := parseDate(query.Get("dateFrom")); t != nil {
		req.DateFrom = t
	}
	if t := parseDate(query.Get("dateTo")); t != nil {
		req.DateTo = t
	}
	req.Limit = queryInt(query.Get("limit"), req.Limit, 1000)
	req.Offset = queryInt(query.Get("offset"), 0, 0)

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"quotations": items,
		"total":      total,
		"limit":      req.Limit,
		"offset":     req.Offset,
	})
}

// Render returns the export payload: items with display SKUs resolved
// against the live catalog plus THB-formatted money fields.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quotationID(w, r)
	if !ok {
		return
	}
	data, err := h.service.RenderData(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID, who string) (*Quotation, error) {
		return h.service.Send(r.Context(), id, who)
	})
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID, who string) (*Quotation, error) {
		return h.service.Accept(r.Context(), id, who)
	})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	_ = httpx.DecodeJSON(r, &body)
	h.transition(w, r, func(id uuid.UUID, who string) (*Quotation, error) {
		return h.service.Reject(r.Context(), id, who, body.Reason)
	})
}

func (h *Handler) Expire(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID, who string) (*Quotation, error) {
		return h.service.Expire(r.Context(), id, who)
	})
}

func (h *Handler) ApproveDiscount(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

func (h *Handler) RejectDiscount(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	id, ok := h.quotationID(w, r)
	if !ok {
		return
	}
	var body struct {
		Note string `json:"note"`
	}
	_ = httpx.DecodeJSON(r, &body)
	q, err := h.service.DecideApproval(r.Context(), id, approve, actor(r), body.Note)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) UpdateDeliveryBatches(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quotationID(w, r)
	if !ok {
		return
	}
	var req UpdateDeliveryBatchesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed JSON", err.Error())
		return
	}
	q, err := h.service.UpdateDeliveryBatches(r.Context(), id, req, actor(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

// Approvals lists the approval records raised for one quotation.
func (h *Handler) Approvals(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quotationID(w, r)
	if !ok {
		return
	}
	records, err := h.recorder.FindByTarget(r.Context(), approvals.TargetQuotation, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"approvals": records})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(uuid.UUID, string) (*Quotation, error)) {
	id, ok := h.quotationID(w, r)
	if !ok {
		return
	}
	q, err := fn(id, actor(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) quotationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "quotation id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	var gerr *GuardrailError
	switch {
	case errors.As(err, &verr):
		httpx.JSON(w, http.StatusBadRequest, map[string]any{
			"error":   "validation failed",
			"details": verr.Fields,
		})
	case errors.As(err, &gerr):
		httpx.JSON(w, http.StatusBadRequest, map[string]any{
			"error":   "discount policy violated",
			"details": gerr.Violations,
		})
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "quotation not found")
	case errors.Is(err, ErrApprovalPending), errors.Is(err, ErrInvalidStatus):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	default:
		h.logger.Error("quotation request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func actor(r *http.Request) string {
	if who := r.Header.Get(headerActor); who != "" {
		return who
	}
	return "system"
}

// queryInt parses a pagination parameter, falling back when absent or
// malformed and clamping to max when max > 0.
func queryInt(s string, fallback, max int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return fallback
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
