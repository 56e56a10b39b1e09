// Package approvals persists approval requests raised by the discount
// guardrail. The engine only writes these records; the review inbox that
// consumes them lives outside this service.
package approvals

import (
	"time"

	"github.com/google/uuid"
)

// TargetType identifies the document kind awaiting sign-off.
type TargetType string

const (
	TargetQuotation TargetType = "quotation"
	TargetDeal      TargetType = "deal"
)

// Approval is one pending-review entry. There is one row per triggering
// document; the inbox looks entries up by target, it is not a queue.
type Approval struct {
	ID          uuid.UUID  `json:"id"`
	TargetType  TargetType `json:"targetType"`
	TargetID    uuid.UUID  `json:"targetId"`
	RequestedBy string     `json:"requestedBy"`
	Team        *string    `json:"team,omitempty"`
	Reason      string     `json:"reason"`
	CreatedAt   time.Time  `json:"createdAt"`
}
