// Package settings exposes the singleton sales policy document. The engine
// treats it as read-only injected configuration; writes happen through the
// back-office, not here.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/winrichdynamic/crm-service/internal/sales/pricing"
)

// ErrNotFound indicates the settings row has never been seeded.
var ErrNotFound = errors.New("settings not found")

// settings is a single-row table; the fixed key keeps it that way.
const singletonKey = "global"

type Repository interface {
	SalesPolicy(ctx context.Context) (pricing.SalesPolicy, error)
	SaveSalesPolicy(ctx context.Context, policy pricing.SalesPolicy) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) SalesPolicy(ctx context.Context) (pricing.SalesPolicy, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT sales_policy FROM settings WHERE key = $1`, singletonKey).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.SalesPolicy{}, ErrNotFound
		}
		return pricing.SalesPolicy{}, fmt.Errorf("settings: load: %w", err)
	}
	var policy pricing.SalesPolicy
	if err := json.Unmarshal(raw, &policy); err != nil {
		return pricing.SalesPolicy{}, fmt.Errorf("settings: decode: %w", err)
	}
	return policy, nil
}

func (r *repository) SaveSalesPolicy(ctx context.Context, policy pricing.SalesPolicy) error {
	raw, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO settings (key, sales_policy) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET sales_policy = EXCLUDED.sales_policy, updated_at = NOW()`, singletonKey, raw)
	if err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	return nil
}
