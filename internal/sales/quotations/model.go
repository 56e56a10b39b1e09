package quotations

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the document lifecycle. Accepted, rejected and expired are
// terminal; documents are never physically deleted.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Terminal reports whether no further lifecycle transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusExpired
}

// ApprovalStatus gates sending, independently of the lifecycle status.
// Only pending blocks sending.
type ApprovalStatus string

const (
	ApprovalNone     ApprovalStatus = "none"
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// QuotationItem is a value object embedded in the quotation. TotalPrice is
// derived through pricing.LineTotal and is never settable independently.
type QuotationItem struct {
	ProductID       uuid.UUID         `json:"productId"`
	ProductName     string            `json:"productName"`
	Description     string            `json:"description,omitempty"`
	SKU             string            `json:"sku,omitempty"`
	Quantity        float64           `json:"quantity"`
	Unit            string            `json:"unit"`
	UnitPrice       float64           `json:"unitPrice"`
	DiscountPercent float64           `json:"discount"`
	TotalPrice      float64           `json:"totalPrice"`
	SelectedOptions map[string]string `json:"selectedOptions,omitempty"`
}

// DeliveryBatch stages a partial delivery of the quoted goods.
type DeliveryBatch struct {
	Quantity     float64   `json:"quantity"`
	DeliveryDate time.Time `json:"deliveryDate"`
	Status       string    `json:"status"`
	Note         string    `json:"note,omitempty"`
}

// EditEntry is one append-only audit trail record.
type EditEntry struct {
	At     time.Time `json:"at"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Detail string    `json:"detail,omitempty"`
}

// Quotation is the aggregate root. All money fields are THB, rounded to two
// decimals, and re-derived server-side on every write. Pricing is
// VAT-inclusive: VATAmount is embedded in TotalAmount and GrandTotal equals
// TotalAmount by construction.
type Quotation struct {
	ID              uuid.UUID       `json:"id"`
	DocNumber       string          `json:"quotationNumber"`
	CustomerID      uuid.UUID       `json:"customerId"`
	CustomerName    string          `json:"customerName"`
	CustomerCode    *string         `json:"customerCode,omitempty"`
	CustomerTaxID   *string         `json:"customerTaxId,omitempty"`
	CustomerAddress *string         `json:"customerAddress,omitempty"`
	CustomerPhone   *string         `json:"customerPhone,omitempty"`
	Items           []QuotationItem `json:"items"`
	Subtotal        float64         `json:"subtotal"`
	TotalDiscount   float64         `json:"totalDiscount"`
	TotalAmount     float64         `json:"totalAmount"`
	VATRate         float64         `json:"vatRate"`
	VATAmount       float64         `json:"vatAmount"`
	GrandTotal      float64         `json:"grandTotal"`
	Currency        string          `json:"currency"`
	Status          Status          `json:"status"`
	ApprovalStatus  ApprovalStatus  `json:"approvalStatus"`
	AssignedTo      string          `json:"assignedTo"`
	Notes           *string         `json:"notes,omitempty"`
	DeliveryBatches []DeliveryBatch `json:"deliveryBatches,omitempty"`
	EditHistory     []EditEntry     `json:"editHistory,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// FormatDocNumber renders the monthly sequential document number.
// The 3rd quotation of March 2025 is QT202503003.
func FormatDocNumber(at time.Time, seq int64) string {
	return fmt.Sprintf("QT%s%03d", at.Format("200601"), seq)
}
