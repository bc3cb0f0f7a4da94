// Package review lets a human adjust classifier suggestions on staged
// transactions and promote an approved import into ledger transactions.
package review

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/caixadigital/ofximport/internal/domain/importer"
)

// ErrPendingNotFound is returned when a pending transaction id does not
// exist.
var ErrPendingNotFound = errors.New("pending transaction not found")

// LedgerTransaction is the authoritative row created by promotion.
type LedgerTransaction struct {
	ID              uuid.UUID
	Title           string
	Description     string
	Amount          int64
	Type            string
	Status          string
	TransactionDate time.Time
	DueDate         time.Time
	PaidDate        time.Time
	CategoryID      *uuid.UUID
	BankID          uuid.UUID
	ImportID        uuid.UUID
}

// PgxPool is the pgxpool.Pool subset the repository uses.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository covers the review-side writes: final category, tags, ledger
// promotion, staging cleanup.
type Repository struct {
	db PgxPool
}

func NewRepository(db PgxPool) *Repository {
	return &Repository{db: db}
}

// GetPending fetches one staged transaction.
func (r *Repository) GetPending(ctx context.Context, id uuid.UUID) (*importer.PendingTransaction, error) {
	query := `
		SELECT id, ofx_import_id, title, description, amount, type,
			transaction_date, fitid, trntype, checknum, memo, name,
			suggested_category_id, confidence,
			suggested_payment_method_id, payment_method_confidence,
			final_category_id, created_at
		FROM ofx_pending_transactions
		WHERE id = $1
	`

	var p importer.PendingTransaction
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.ImportID, &p.Title, &p.Description, &p.Amount, &p.Type,
		&p.TransactionDate, &p.FitID, &p.TrnType, &p.CheckNum, &p.Memo, &p.Name,
		&p.SuggestedCategoryID, &p.Confidence,
		&p.SuggestedPaymentMethodID, &p.PaymentMethodConfidence,
		&p.FinalCategoryID, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPendingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetFinalCategory records a human override on one staged transaction.
func (r *Repository) SetFinalCategory(ctx context.Context, id, categoryID uuid.UUID) error {
	query := `UPDATE ofx_pending_transactions SET final_category_id = $2 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, categoryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPendingNotFound
	}
	return nil
}

// ReplaceTags swaps the tag associations of one staged transaction.
func (r *Repository) ReplaceTags(ctx context.Context, pendingID uuid.UUID, tagIDs []uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM ofx_pending_transaction_tags WHERE ofx_pending_transaction_id = $1`,
		pendingID)
	if err != nil {
		return err
	}

	for _, tagID := range tagIDs {
		_, err := r.db.Exec(ctx,
			`INSERT INTO ofx_pending_transaction_tags (ofx_pending_transaction_id, tag_id) VALUES ($1, $2)`,
			pendingID, tagID)
		if err != nil {
			return err
		}
	}
	return nil
}

// InsertLedger creates one authoritative transaction.
func (r *Repository) InsertLedger(ctx context.Context, tx *LedgerTransaction) error {
	query := `
		INSERT INTO financial_transactions (
			id, title, description, amount, type, status,
			transaction_date, due_date, paid_date,
			category_id, bank_id, ofx_import_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		tx.ID, tx.Title, tx.Description, tx.Amount, tx.Type, tx.Status,
		tx.TransactionDate, tx.DueDate, tx.PaidDate,
		tx.CategoryID, tx.BankID, tx.ImportID,
	)
	return err
}

// DeletePendingForImport removes all staging rows of an import.
func (r *Repository) DeletePendingForImport(ctx context.Context, importID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM ofx_pending_transactions WHERE ofx_import_id = $1`, importID)
	return err
}
