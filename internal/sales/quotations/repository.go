package quotations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/winrichdynamic/crm-service/internal/platform/db"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, q *Quotation) error
	Get(ctx context.Context, id uuid.UUID) (*Quotation, error)
	GetByDocNumber(ctx context.Context, docNumber string) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error)
	LatestForCustomer(ctx context.Context, customerID uuid.UUID) (*Quotation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, entry EditEntry) error
	UpdateApprovalStatus(ctx context.Context, id uuid.UUID, approval ApprovalStatus, entry EditEntry) error
	UpdateDeliveryBatches(ctx context.Context, id uuid.UUID, batches []DeliveryBatch, entry EditEntry) error
	// NextDocNumber returns a number unique among concurrent callers. The
	// sequence row is advanced with an atomic upsert, never count-then-format.
	NextDocNumber(ctx context.Context, at time.Time) (string, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const quotationColumns = `id, doc_number, customer_id, customer_name, customer_code, customer_tax_id,
customer_address, customer_phone, items, subtotal, total_discount, total_amount, vat_rate, vat_amount,
grand_total, currency, status, approval_status, assigned_to, notes, delivery_batches, edit_history,
created_at, updated_at`

func (r *repository) Create(ctx context.Context, q *Quotation) error {
	items, batches, history, err := marshalEmbedded(q)
	if err != nil {
		return err
	}
	const query = `INSERT INTO quotations (id, doc_number, customer_id, customer_name, customer_code,
customer_tax_id, customer_address, customer_phone, items, subtotal, total_discount, total_amount,
vat_rate, vat_amount, grand_total, currency, status, approval_status, assigned_to, notes,
delivery_batches, edit_history)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
RETURNING created_at, updated_at`
	err = r.db.QueryRow(ctx, query,
		q.ID, q.DocNumber, q.CustomerID, q.CustomerName, q.CustomerCode,
		q.CustomerTaxID, q.CustomerAddress, q.CustomerPhone, items, q.Subtotal, q.TotalDiscount,
		q.TotalAmount, q.VATRate, q.VATAmount, q.GrandTotal, q.Currency, string(q.Status),
		string(q.ApprovalStatus), q.AssignedTo, q.Notes, batches, history,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("quotations: create: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id)
	return scanQuotation(row)
}

func (r *repository) GetByDocNumber(ctx context.Context, docNumber string) (*Quotation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE doc_number = $1`, docNumber)
	return scanQuotation(row)
}

func (r *repository) LatestForCustomer(ctx context.Context, customerID uuid.UUID) (*Quotation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations
WHERE customer_id = $1 ORDER BY created_at DESC LIMIT 1`, customerID)
	return scanQuotation(row)
}

func (r *repository) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	clause := ` WHERE 1=1`
	args := []interface{}{}
	argPos := 0

	if req.CustomerID != nil {
		argPos++
		clause += ` AND customer_id = $` + strconv.Itoa(argPos)
		args = append(args, *req.CustomerID)
	}
	if req.Status != nil {
		argPos++
		clause += ` AND status = $` + strconv.Itoa(argPos)
		args = append(args, string(*req.Status))
	}
	if req.ApprovalStatus != nil {
		argPos++
		clause += ` AND approval_status = $` + strconv.Itoa(argPos)
		args = append(args, string(*req.ApprovalStatus))
	}
	if req.DateFrom != nil {
		argPos++
		clause += ` AND created_at >= $` + strconv.Itoa(argPos)
		args = append(args, *req.DateFrom)
	}
	if req.DateTo != nil {
		argPos++
		clause += ` AND created_at <= $` + strconv.Itoa(argPos)
		args = append(args, *req.DateTo)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM quotations`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("quotations: count: %w", err)
	}

	query := `SELECT ` + quotationColumns + ` FROM quotations` + clause + ` ORDER BY created_at DESC, doc_number DESC`
	if req.Limit > 0 {
		argPos++
		query += ` LIMIT $` + strconv.Itoa(argPos)
		args = append(args, req.Limit)
		argPos++
		query += ` OFFSET $` + strconv.Itoa(argPos)
		args = append(args, req.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("quotations: list: %w", err)
	}
	defer rows.Close()

	var out []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *q)
	}
	return out, total, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, entry EditEntry) error {
	return r.updateWithHistory(ctx, id, `status = $2`, string(status), entry)
}

func (r *repository) UpdateApprovalStatus(ctx context.Context, id uuid.UUID, approval ApprovalStatus, entry EditEntry) error {
	return r.updateWithHistory(ctx, id, `approval_status = $2`, string(approval), entry)
}

func (r *repository) UpdateDeliveryBatches(ctx context.Context, id uuid.UUID, batches []DeliveryBatch, entry EditEntry) error {
	raw, err := json.Marshal(batches)
	if err != nil {
		return fmt.Errorf("quotations: marshal batches: %w", err)
	}
	return r.updateWithHistory(ctx, id, `delivery_batches = $2`, raw, entry)
}

// updateWithHistory sets one column and appends the edit entry in the same
// statement, keeping the audit trail consistent with the change.
func (r *repository) updateWithHistory(ctx context.Context, id uuid.UUID, setClause string, value interface{}, entry EditEntry) error {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("quotations: marshal edit entry: %w", err)
	}
	query := `UPDATE quotations SET ` + setClause + `,
edit_history = COALESCE(edit_history, '[]'::jsonb) || $3::jsonb,
updated_at = NOW()
WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, value, entryJSON)
	if err != nil {
		return fmt.Errorf("quotations: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) NextDocNumber(ctx context.Context, at time.Time) (string, error) {
	var seq int64
	period := at.Format("200601")
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, "QT", period).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("quotations: next doc number: %w", err)
	}
	return FormatDocNumber(at, seq), nil
}

func marshalEmbedded(q *Quotation) (items, batches, history []byte, err error) {
	if items, err = json.Marshal(q.Items); err != nil {
		return nil, nil, nil, fmt.Errorf("quotations: marshal items: %w", err)
	}
	if batches, err = json.Marshal(q.DeliveryBatches); err != nil {
		return nil, nil, nil, fmt.Errorf("quotations: marshal batches: %w", err)
	}
	if history, err = json.Marshal(q.EditHistory); err != nil {
		return nil, nil, nil, fmt.Errorf("quotations: marshal history: %w", err)
	}
	return items, batches, history, nil
}

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	var status, approval string
	var items, batches, history []byte
	err := row.Scan(
		&q.ID, &q.DocNumber, &q.CustomerID, &q.CustomerName, &q.CustomerCode, &q.CustomerTaxID,
		&q.CustomerAddress, &q.CustomerPhone, &items, &q.Subtotal, &q.TotalDiscount, &q.TotalAmount,
		&q.VATRate, &q.VATAmount, &q.GrandTotal, &q.Currency, &status, &approval, &q.AssignedTo,
		&q.Notes, &batches, &history, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("quotations: scan: %w", err)
	}
	q.Status = Status(status)
	q.ApprovalStatus = ApprovalStatus(approval)
	if len(items) > 0 {
		if err := json.Unmarshal(items, &q.Items); err != nil {
			return nil, fmt.Errorf("quotations: decode items: %w", err)
		}
	}
	if len(batches) > 0 {
		if err := json.Unmarshal(batches, &q.DeliveryBatches); err != nil {
			return nil, fmt.Errorf("quotations: decode batches: %w", err)
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &q.EditHistory); err != nil {
			return nil, fmt.Errorf("quotations: decode history: %w", err)
		}
	}
	return &q, nil
}
