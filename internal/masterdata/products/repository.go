package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates a missing catalog entry.
var ErrNotFound = errors.New("product not found")

// ListFilters narrows List results.
type ListFilters struct {
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}

type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (Product, error)
	List(ctx context.Context, filters ListFilters) ([]Product, int, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id uuid.UUID, product Product) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	const query = `SELECT id, name, sku, price, units, sku_variants, is_active, created_at, updated_at
FROM products WHERE id = $1`
	row := r.db.QueryRow(ctx, query, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("products: get: %w", err)
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	query := `SELECT id, name, sku, price, units, sku_variants, is_active, created_at, updated_at FROM products WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM products WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	clause := ""
	if filters.Search != "" {
		argCount++
		clause += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR sku ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.IsActive != nil {
		argCount++
		clause += ` AND is_active = $` + strconv.Itoa(argCount)
		args = append(args, *filters.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("products: count: %w", err)
	}

	query += clause + ` ORDER BY name ASC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("products: list: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("products: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	units, variants, err := marshalCatalog(p)
	if err != nil {
		return Product{}, err
	}
	const query = `INSERT INTO products (id, name, sku, price, units, sku_variants, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at`
	err = r.db.QueryRow(ctx, query, p.ID, p.Name, p.SKU, p.Price, units, variants, p.IsActive).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("products: create: %w", err)
	}
	return p, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, p Product) error {
	units, variants, err := marshalCatalog(p)
	if err != nil {
		return err
	}
	const query = `UPDATE products SET name=$2, sku=$3, price=$4, units=$5, sku_variants=$6, is_active=$7, updated_at=NOW()
WHERE id=$1`
	tag, err := r.db.Exec(ctx, query, id, p.Name, p.SKU, p.Price, units, variants, p.IsActive)
	if err != nil {
		return fmt.Errorf("products: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalCatalog(p Product) ([]byte, []byte, error) {
	units, err := json.Marshal(p.Units)
	if err != nil {
		return nil, nil, fmt.Errorf("products: marshal units: %w", err)
	}
	variants, err := json.Marshal(p.SKUVariants)
	if err != nil {
		return nil, nil, fmt.Errorf("products: marshal variants: %w", err)
	}
	return units, variants, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var units, variants []byte
	if err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Price, &units, &variants, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	if len(units) > 0 {
		if err := json.Unmarshal(units, &p.Units); err != nil {
			return Product{}, err
		}
	}
	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &p.SKUVariants); err != nil {
			return Product{}, err
		}
	}
	return p, nil
}
