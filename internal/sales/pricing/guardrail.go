package pricing

// ViolationMode selects how a guardrail violation propagates. The deal
// creation path rejects outright; the quotation path flags for approval and
// proceeds. The divergence is an explicit caller choice, not two checks.
type ViolationMode string

const (
	// OnViolationReject blocks creation when any line exceeds the policy.
	OnViolationReject ViolationMode = "reject"
	// OnViolationFlag lets creation proceed but marks it for approval.
	OnViolationFlag ViolationMode = "flag"
)

// Line is the subset of a quotation item the guardrail inspects.
type Line struct {
	ProductID       string  `json:"productId"`
	Quantity        float64 `json:"quantity"`
	UnitPrice       float64 `json:"unitPrice"`
	DiscountPercent float64 `json:"discount"`
}

// Result reports the guardrail outcome for one document.
type Result struct {
	OK               bool   `json:"ok"`
	Violations       []Line `json:"violations,omitempty"`
	RequiresApproval bool   `json:"requiresApproval"`
}

// Guardrail validates line discounts against the sales policy.
type Guardrail struct {
	policy SalesPolicy
}

// NewGuardrail constructs a Guardrail for the given policy.
func NewGuardrail(policy SalesPolicy) *Guardrail {
	if policy.MaxDiscountPercentWithoutApproval <= 0 {
		policy.MaxDiscountPercentWithoutApproval = DefaultMaxDiscountPercent
	}
	return &Guardrail{policy: policy}
}

// Check flags every line whose discount exceeds the approval-free maximum.
// A discount exactly equal to the maximum is allowed. In reject mode any
// violation makes the result not OK; in flag mode the result stays OK and
// only RequiresApproval is raised.
func (g *Guardrail) Check(lines []Line, mode ViolationMode) Result {
	res := Result{OK: true}
	for _, line := range lines {
		if line.DiscountPercent > g.policy.MaxDiscountPercentWithoutApproval {
			res.Violations = append(res.Violations, line)
		}
	}
	if len(res.Violations) > 0 {
		res.RequiresApproval = true
		if mode == OnViolationReject {
			res.OK = false
		}
	}
	return res
}
