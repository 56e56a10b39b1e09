package quotations

import (
	"time"

	"github.com/google/uuid"

	"github.com/winrichdynamic/crm-service/internal/sales/pricing"
)

type CreateQuotationItemReq struct {
	ProductID       uuid.UUID         `json:"productId" validate:"required"`
	ProductName     string            `json:"productName" validate:"required"`
	Description     string            `json:"description,omitempty"`
	SKU             string            `json:"sku,omitempty"`
	Quantity        float64           `json:"quantity" validate:"required,gt=0"`
	Unit            string            `json:"unit" validate:"required,max=50"`
	UnitPrice       float64           `json:"unitPrice" validate:"gte=0"`
	DiscountPercent float64           `json:"discount" validate:"gte=0,lte=100"`
	SelectedOptions map[string]string `json:"selectedOptions,omitempty"`
}

type CreateQuotationRequest struct {
	CustomerID      uuid.UUID                `json:"customerId" validate:"required"`
	CustomerName    string                   `json:"customerName" validate:"required"`
	CustomerCode    *string                  `json:"customerCode,omitempty"`
	CustomerTaxID   *string                  `json:"customerTaxId,omitempty"`
	CustomerAddress *string                  `json:"customerAddress,omitempty"`
	CustomerPhone   *string                  `json:"customerPhone,omitempty"`
	Items           []CreateQuotationItemReq `json:"items" validate:"required,min=1,dive"`
	SpecialDiscount float64                  `json:"specialDiscount" validate:"gte=0"`
	VATRate         *float64                 `json:"vatRate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Subtotal        *float64                 `json:"subtotal,omitempty"`
	TotalAmount     *float64                 `json:"totalAmount,omitempty"`
	Notes           *string                  `json:"notes,omitempty"`
	AssignedTo      string                   `json:"assignedTo" validate:"required"`
}

// CreateOptions carry caller context that is not part of the document body:
// the originating channel for provenance notes and the guardrail propagation
// mode chosen by the code path.
type CreateOptions struct {
	Channel     string
	Actor       string
	OnViolation pricing.ViolationMode
}

// CreateResult is the two-phase creation outcome. ApprovalRecorded is false
// when the quotation needed approval but the approval-queue write failed;
// the quotation itself is still persisted.
type CreateResult struct {
	Quotation        *Quotation `json:"quotation"`
	ApprovalRecorded bool       `json:"approvalRecorded"`
}

type ListQuotationsRequest struct {
	CustomerID     *uuid.UUID      `json:"customerId,omitempty"`
	Status         *Status         `json:"status,omitempty"`
	ApprovalStatus *ApprovalStatus `json:"approvalStatus,omitempty"`
	DateFrom       *time.Time      `json:"dateFrom,omitempty"`
	DateTo         *time.Time      `json:"dateTo,omitempty"`
	Limit          int             `json:"limit" validate:"gte=0,lte=1000"`
	Offset         int             `json:"offset" validate:"gte=0"`
}

type UpdateDeliveryBatchesRequest struct {
	Batches []DeliveryBatchReq `json:"deliveryBatches" validate:"required,min=1,dive"`
}

type DeliveryBatchReq struct {
	Quantity     float64   `json:"quantity" validate:"required,gt=0"`
	DeliveryDate time.Time `json:"deliveryDate" validate:"required"`
	Status       string    `json:"status" validate:"required"`
	Note         string    `json:"note,omitempty"`
}
