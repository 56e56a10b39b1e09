package quotations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/winrichdynamic/crm-service/internal/approvals"
	"github.com/winrichdynamic/crm-service/internal/masterdata/products"
	"github.com/winrichdynamic/crm-service/internal/sales/pricing"
)

// PolicySource supplies the effective sales policy. Implemented by the
// settings service; injected so the policy is testable without a database.
type PolicySource interface {
	Policy(ctx context.Context) pricing.SalesPolicy
}

// ApprovalSink records approval requests. Writes are best-effort: a failure
// is reported through CreateResult, never rolled back into the quotation.
type ApprovalSink interface {
	Record(ctx context.Context, a approvals.Approval) error
}

// ApprovalNotice is handed to the notifier when a quotation enters pending.
type ApprovalNotice struct {
	QuotationID uuid.UUID `json:"quotationId"`
	DocNumber   string    `json:"quotationNumber"`
	RequestedBy string    `json:"requestedBy"`
	Reason      string    `json:"reason"`
}

// Notifier dispatches approval notices to reviewers. Optional, best-effort.
type Notifier interface {
	NotifyApprovalRequested(ctx context.Context, n ApprovalNotice) error
}

// Catalog is the read-only product lookup used at render time.
type Catalog interface {
	Get(ctx context.Context, id uuid.UUID) (products.Product, error)
}

type Service struct {
	repo      Repository
	policies  PolicySource
	approvals ApprovalSink
	notifier  Notifier
	catalog   Catalog
	logger    *slog.Logger
	validate  *validator.Validate
	now       func() time.Time
}

func NewService(repo Repository, policies PolicySource, sink ApprovalSink, notifier Notifier, catalog Catalog, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		policies:  policies,
		approvals: sink,
		notifier:  notifier,
		catalog:   catalog,
		logger:    logger,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// Create assembles and persists a quotation from raw input. Money fields are
// always recomputed server-side; client-supplied subtotal/totalAmount are
// honoured only when finite. The guardrail runs in the caller-chosen mode:
// the quotation path flags violations for approval, the deal path rejects.
func (s *Service) Create(ctx context.Context, req CreateQuotationRequest, opts CreateOptions) (*CreateResult, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	mode := opts.OnViolation
	if mode == "" {
		mode = pricing.OnViolationFlag
	}

	policy := s.policies.Policy(ctx)
	guard := pricing.NewGuardrail(policy)
	check := guard.Check(guardLines(req.Items), mode)
	if !check.OK {
		return nil, &GuardrailError{Violations: check.Violations}
	}

	items := make([]QuotationItem, len(req.Items))
	var subtotal float64
	for i, it := range req.Items {
		items[i] = QuotationItem{
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			Description:     it.Description,
			SKU:             strings.TrimSpace(it.SKU),
			Quantity:        it.Quantity,
			Unit:            it.Unit,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
			TotalPrice:      pricing.LineTotal(it.Quantity, it.UnitPrice, it.DiscountPercent),
			SelectedOptions: products.NormalizeOptions(it.SelectedOptions),
		}
		subtotal += items[i].TotalPrice
	}
	subtotal = pricing.Round2(subtotal)
	if finite(req.Subtotal) {
		subtotal = pricing.Round2(*req.Subtotal)
	}

	special := pricing.Round2(req.SpecialDiscount)
	special = policy.TierDiscount(subtotal, special)

	totalAmount := pricing.Round2(subtotal - special)
	if finite(req.TotalAmount) {
		totalAmount = pricing.Round2(*req.TotalAmount)
	}
	totalDiscount := pricing.Round2(subtotal - totalAmount)

	vatRate := 7.0
	if req.VATRate != nil {
		vatRate = *req.VATRate
	}

	approvalStatus := ApprovalNone
	reason := ""
	if check.RequiresApproval {
		if s.matchesLatestQuotation(ctx, req.CustomerID, items) {
			// Re-quoting the exact basket of the customer's most recent
			// quotation does not re-trigger approval.
			approvalStatus = ApprovalNone
		} else {
			approvalStatus = ApprovalPending
			reason = fmt.Sprintf("line discount exceeds %.2f%% policy maximum",
				policy.MaxDiscountPercentWithoutApproval)
		}
	}

	now := s.now()
	q := &Quotation{
		ID:              uuid.New(),
		CustomerID:      req.CustomerID,
		CustomerName:    req.CustomerName,
		CustomerCode:    req.CustomerCode,
		CustomerTaxID:   req.CustomerTaxID,
		CustomerAddress: req.CustomerAddress,
		CustomerPhone:   req.CustomerPhone,
		Items:           items,
		Subtotal:        subtotal,
		TotalDiscount:   totalDiscount,
		TotalAmount:     totalAmount,
		VATRate:         vatRate,
		VATAmount:       pricing.ExtractVAT(totalAmount, vatRate),
		GrandTotal:      totalAmount,
		Currency:        "THB",
		Status:          StatusDraft,
		ApprovalStatus:  approvalStatus,
		AssignedTo:      req.AssignedTo,
		Notes:           withProvenance(req.Notes, opts),
		EditHistory: []EditEntry{{
			At:     now,
			Actor:  req.AssignedTo,
			Action: "created",
			Detail: detailForChannel(opts),
		}},
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.NextDocNumber(ctx, now)
		if err != nil {
			return err
		}
		q.DocNumber = number
		return repo.Create(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	result := &CreateResult{Quotation: q, ApprovalRecorded: true}
	if approvalStatus == ApprovalPending {
		s.raiseApproval(ctx, q, reason, result)
	}
	return result, nil
}

// raiseApproval writes the approval record and notifies reviewers. Both are
// best-effort: the quotation is already persisted and stays pending either
// way; a failed record write is surfaced on the result and logged.
func (s *Service) raiseApproval(ctx context.Context, q *Quotation, reason string, result *CreateResult) {
	if s.approvals != nil {
		err := s.approvals.Record(ctx, approvals.Approval{
			TargetType:  approvals.TargetQuotation,
			TargetID:    q.ID,
			RequestedBy: q.AssignedTo,
			Reason:      reason,
		})
		if err != nil {
			result.ApprovalRecorded = false
			s.logger.Warn("approval record write failed",
				slog.String("quotation", q.DocNumber), slog.Any("error", err))
		}
	}
	if s.notifier != nil {
		err := s.notifier.NotifyApprovalRequested(ctx, ApprovalNotice{
			QuotationID: q.ID,
			DocNumber:   q.DocNumber,
			RequestedBy: q.AssignedTo,
			Reason:      reason,
		})
		if err != nil {
			s.logger.Warn("approval notify enqueue failed",
				slog.String("quotation", q.DocNumber), slog.Any("error", err))
		}
	}
}

// matchesLatestQuotation compares the new item set against the customer's
// most recently created quotation, order-independent, on product, unit,
// unit price and discount. Only the immediately previous quotation counts.
func (s *Service) matchesLatestQuotation(ctx context.Context, customerID uuid.UUID, items []QuotationItem) bool {
	latest, err := s.repo.LatestForCustomer(ctx, customerID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("latest quotation lookup failed", slog.Any("error", err))
		}
		return false
	}
	return itemSetKey(items) == itemSetKey(latest.Items)
}

func itemSetKey(items []QuotationItem) string {
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = fmt.Sprintf("%s|%s|%.2f|%.2f|%.4f", it.ProductID, it.Unit, it.UnitPrice, it.DiscountPercent, it.Quantity)
	}
	sort.Strings(keys)
	return strings.Join(keys, ";")
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByDocNumber(ctx context.Context, docNumber string) (*Quotation, error) {
	return s.repo.GetByDocNumber(ctx, docNumber)
}

func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// Send moves a draft to sent. Sending is gated on the approval status: a
// pending discount sign-off blocks it, everything else lets it through.
func (s *Service) Send(ctx context.Context, id uuid.UUID, actor string) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status != StatusDraft {
		return nil, fmt.Errorf("%w: only draft quotations can be sent", ErrInvalidStatus)
	}
	if q.ApprovalStatus == ApprovalPending {
		return nil, ErrApprovalPending
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusSent, s.editEntry(actor, "sent", "")); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Accept(ctx context.Context, id uuid.UUID, actor string) (*Quotation, error) {
	return s.closeFromSent(ctx, id, StatusAccepted, actor, "accepted")
}

func (s *Service) Reject(ctx context.Context, id uuid.UUID, actor, reason string) (*Quotation, error) {
	return s.closeFromSent(ctx, id, StatusRejected, actor, reason)
}

func (s *Service) Expire(ctx context.Context, id uuid.UUID, actor string) (*Quotation, error) {
	return s.closeFromSent(ctx, id, StatusExpired, actor, "validity period elapsed")
}

func (s *Service) closeFromSent(ctx context.Context, id uuid.UUID, target Status, actor, detail string) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status != StatusSent {
		return nil, fmt.Errorf("%w: only sent quotations can become %s", ErrInvalidStatus, target)
	}
	if err := s.repo.UpdateStatus(ctx, id, target, s.editEntry(actor, string(target), detail)); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// DecideApproval resolves a pending discount sign-off.
func (s *Service) DecideApproval(ctx context.Context, id uuid.UUID, approve bool, actor, note string) (*Quotation, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.ApprovalStatus != ApprovalPending {
		return nil, fmt.Errorf("%w: quotation is not awaiting approval", ErrInvalidStatus)
	}
	target := ApprovalApproved
	action := "approval granted"
	if !approve {
		target = ApprovalRejected
		action = "approval declined"
	}
	if err := s.repo.UpdateApprovalStatus(ctx, id, target, s.editEntry(actor, action, note)); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// UpdateDeliveryBatches replaces the staged delivery plan.
func (s *Service) UpdateDeliveryBatches(ctx context.Context, id uuid.UUID, req UpdateDeliveryBatchesRequest, actor string) (*Quotation, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status == StatusRejected || q.Status == StatusExpired {
		return nil, fmt.Errorf("%w: cannot schedule deliveries for a %s quotation", ErrInvalidStatus, q.Status)
	}
	batches := make([]DeliveryBatch, len(req.Batches))
	for i, b := range req.Batches {
		batches[i] = DeliveryBatch{
			Quantity:     b.Quantity,
			DeliveryDate: b.DeliveryDate,
			Status:       b.Status,
			Note:         b.Note,
		}
	}
	entry := s.editEntry(actor, "delivery batches updated", fmt.Sprintf("%d batch(es)", len(batches)))
	if err := s.repo.UpdateDeliveryBatches(ctx, id, batches, entry); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) editEntry(actor, action, detail string) EditEntry {
	return EditEntry{At: s.now(), Actor: actor, Action: action, Detail: detail}
}

func (s *Service) validateRequest(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := strings.SplitN(fe.Namespace(), ".", 2)
		name := fe.Namespace()
		if len(field) == 2 {
			name = field[1]
		}
		fields[name] = validationMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "needs at least " + fe.Param() + " entry"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

func guardLines(items []CreateQuotationItemReq) []pricing.Line {
	lines := make([]pricing.Line, len(items))
	for i, it := range items {
		lines[i] = pricing.Line{
			ProductID:       it.ProductID.String(),
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
		}
	}
	return lines
}

// withProvenance appends a human-readable origin line to the notes when the
// request came from a non-UI channel, e.g. a chat command.
func withProvenance(notes *string, opts CreateOptions) *string {
	if opts.Channel == "" {
		return notes
	}
	line := "created via " + opts.Channel
	if opts.Actor != "" {
		line += " by " + opts.Actor
	}
	if notes == nil || *notes == "" {
		return &line
	}
	combined := *notes + "\n" + line
	return &combined
}

func detailForChannel(opts CreateOptions) string {
	if opts.Channel == "" {
		return ""
	}
	return "channel: " + opts.Channel
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
