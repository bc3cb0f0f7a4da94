// Package catalog exposes the reference data the import pipeline resolves
// against: financial categories, payment methods, tags and banks.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a catalog entity does not exist or is inactive.
var ErrNotFound = errors.New("catalog entity not found")

// Category is a financial category (INCOME or EXPENSE).
type Category struct {
	ID        uuid.UUID
	Name      string
	Type      string
	IsActive  bool
	CreatedAt time.Time
}

// PaymentMethod is a seeded payment method (PIX, Boleto, ...).
type PaymentMethod struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

// Tag is a free-form label attachable to pending transactions.
type Tag struct {
	ID       uuid.UUID
	Name     string
	IsActive bool
}

// Bank is a registered bank account statements are imported against.
type Bank struct {
	ID       uuid.UUID
	Name     string
	Code     string
	IsActive bool
}

// PgxPool is the subset of pgxpool.Pool the repositories use. pgxmock
// satisfies it in tests.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository reads the catalog tables.
type Repository struct {
	db PgxPool
}

func NewRepository(db PgxPool) *Repository {
	return &Repository{db: db}
}

// ListCategories returns all active categories.
func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	query := `
		SELECT id, name, type, is_active, created_at
		FROM financial_categories
		WHERE is_active = true
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategory fetches one active category by id.
func (r *Repository) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	query := `
		SELECT id, name, type, is_active, created_at
		FROM financial_categories
		WHERE id = $1 AND is_active = true
	`

	var c Category
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Type, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListPaymentMethods returns all active payment methods.
func (r *Repository) ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	query := `
		SELECT id, name, is_active, created_at
		FROM payment_methods
		WHERE is_active = true
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []PaymentMethod
	for rows.Next() {
		var m PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// GetTags fetches the active tags for the given ids. Missing or inactive
// ids are reported as ErrNotFound so callers can reject the whole request.
func (r *Repository) GetTags(ctx context.Context, ids []uuid.UUID) ([]Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, name, is_active
		FROM tags
		WHERE id = ANY($1) AND is_active = true
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.IsActive); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, ErrNotFound
	}
	return tags, nil
}

// GetBank fetches one active bank by id.
func (r *Repository) GetBank(ctx context.Context, id uuid.UUID) (*Bank, error) {
	query := `
		SELECT id, name, COALESCE(code, ''), is_active
		FROM banks
		WHERE id = $1 AND is_active = true
	`

	var b Bank
	err := r.db.QueryRow(ctx, query, id).Scan(&b.ID, &b.Name, &b.Code, &b.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
