package quotations

import (
	"errors"
	"fmt"
	"strings"

	"github.com/winrichdynamic/crm-service/internal/sales/pricing"
)

var (
	ErrNotFound      = errors.New("quotation not found")
	ErrInvalidStatus = errors.New("invalid status transition")
	// ErrApprovalPending blocks sending while a discount sign-off is open.
	ErrApprovalPending = errors.New("quotation is awaiting discount approval")
)

// ValidationError carries itemized field errors for a 400 response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// GuardrailError is returned by reject-mode creation when line discounts
// exceed the policy maximum.
type GuardrailError struct {
	Violations []pricing.Line
}

func (e *GuardrailError) Error() string {
	return fmt.Sprintf("discount policy violated on %d line(s)", len(e.Violations))
}
