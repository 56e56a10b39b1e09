package approvals

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Recorder persists approval requests.
type Recorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(pool *pgxpool.Pool, logger *slog.Logger) *Recorder {
	return &Recorder{pool: pool, logger: logger}
}

// Record writes one approval entry.
func (r *Recorder) Record(ctx context.Context, a Approval) error {
	if r == nil {
		return errors.New("approval recorder not initialised")
	}
	if a.TargetType == "" {
		return errors.New("approval target type required")
	}
	if a.TargetID == uuid.Nil {
		return errors.New("approval target id required")
	}
	if a.RequestedBy == "" {
		return errors.New("approval requester required")
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO approvals (id, target_type, target_id, requested_by, team, reason, created_at)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))`,
		a.ID, string(a.TargetType), a.TargetID, a.RequestedBy, a.Team, a.Reason, nullableTime(a))
	if err != nil {
		r.logger.Error("record approval", slog.Any("error", err))
		return err
	}
	return nil
}

// FindByTarget returns the approval entries raised for one document,
// oldest first.
func (r *Recorder) FindByTarget(ctx context.Context, targetType TargetType, targetID uuid.UUID) ([]Approval, error) {
	if r == nil {
		return nil, errors.New("approval recorder not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, target_type, target_id, requested_by, team, reason, created_at
FROM approvals WHERE target_type=$1 AND target_id=$2 ORDER BY created_at ASC`, string(targetType), targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Approval
	for rows.Next() {
		var a Approval
		var tt string
		if err := rows.Scan(&a.ID, &tt, &a.TargetID, &a.RequestedBy, &a.Team, &a.Reason, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.TargetType = TargetType(tt)
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullableTime(a Approval) interface{} {
	if a.CreatedAt.IsZero() {
		return nil
	}
	return a.CreatedAt
}
