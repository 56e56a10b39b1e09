package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/winrichdynamic/crm-service/internal/sales/quotations"
)

// Enqueuer pushes approval notices onto the queue. It implements
// quotations.Notifier; the quotation service treats enqueue failures as
// best-effort and only logs them.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer constructs an Enqueuer over an asynq client.
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) NotifyApprovalRequested(ctx context.Context, notice quotations.ApprovalNotice) error {
	task, err := NewApprovalNotifyTask(notice)
	if err != nil {
		return fmt.Errorf("jobs: build notify task: %w", err)
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("jobs: enqueue notify task: %w", err)
	}
	return nil
}
