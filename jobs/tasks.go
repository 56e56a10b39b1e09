// Package jobs defines the asynq tasks and worker for background delivery of
// approval notices. Actual LINE/SMS dispatch is an external collaborator;
// the worker hands the notice to it and retries on failure.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/winrichdynamic/crm-service/internal/sales/quotations"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeApprovalNotify asks reviewers to look at a pending quotation.
	TaskTypeApprovalNotify = "approval:notify"
)

// NewApprovalNotifyTask constructs an asynq task from an approval notice.
func NewApprovalNotifyTask(notice quotations.ApprovalNotice) (*asynq.Task, error) {
	data, err := json.Marshal(notice)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeApprovalNotify, data, asynq.Queue(QueueDefault)), nil
}

// NotifySender delivers an approval notice to reviewers. Implementations
// wrap the LINE/SMS gateways, which live outside this service.
type NotifySender interface {
	Send(ctx context.Context, notice quotations.ApprovalNotice) error
}

// ApprovalNotifyHandler processes TaskTypeApprovalNotify tasks.
func ApprovalNotifyHandler(sender NotifySender, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var notice quotations.ApprovalNotice
		if err := json.Unmarshal(t.Payload(), &notice); err != nil {
			return asynq.SkipRetry
		}
		if sender == nil {
			logger.Info("approval notice (no sender configured)",
				slog.String("quotation", notice.DocNumber),
				slog.String("requestedBy", notice.RequestedBy))
			return nil
		}
		return sender.Send(ctx, notice)
	}
}
