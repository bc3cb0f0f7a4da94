package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrJobNotFound is returned when an import job id does not exist.
	ErrJobNotFound = errors.New("import job not found")

	// ErrInvalidTransition is returned when a status update would violate
	// the monotonic state machine.
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// PgxPool is the pgxpool.Pool subset the repository uses; pgxmock stands in
// for it in tests.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists import jobs and their staged pending transactions.
type Repository struct {
	db PgxPool
}

func NewRepository(db PgxPool) *Repository {
	return &Repository{db: db}
}

const jobColumns = `id, bank_id, file_name, description, status,
		total_records, processed_records, error_message, import_date`

// CreateJob inserts a new PENDING job.
func (r *Repository) CreateJob(ctx context.Context, job *Job) error {
	query := `
		INSERT INTO ofx_imports (id, bank_id, file_name, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING import_date
	`
	return r.db.QueryRow(ctx, query,
		job.ID, job.BankID, job.FileName, job.Description, job.Status,
	).Scan(&job.ImportDate)
}

// GetJob fetches one job by id.
func (r *Repository) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM ofx_imports WHERE id = $1`

	var job Job
	err := r.db.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.BankID, &job.FileName, &job.Description, &job.Status,
		&job.TotalRecords, &job.ProcessedRecords, &job.ErrorMessage, &job.ImportDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs returns all jobs, newest first.
func (r *Repository) ListJobs(ctx context.Context) ([]Job, error) {
	query := `SELECT ` + jobColumns + ` FROM ofx_imports ORDER BY import_date DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(
			&job.ID, &job.BankID, &job.FileName, &job.Description, &job.Status,
			&job.TotalRecords, &job.ProcessedRecords, &job.ErrorMessage, &job.ImportDate,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// UpdateStatus moves a job to next, enforcing the state machine in the
// WHERE clause so concurrent writers cannot regress a job.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, next Status, errorMessage *string) error {
	var from []string
	for status, targets := range allowedTransitions {
		for _, target := range targets {
			if target == next {
				from = append(from, string(status))
			}
		}
	}

	query := `
		UPDATE ofx_imports
		SET status = $2, error_message = COALESCE($3, error_message)
		WHERE id = $1 AND status = ANY($4)
	`
	tag, err := r.db.Exec(ctx, query, id, next, errorMessage, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetJob(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: to %s", ErrInvalidTransition, next)
	}
	return nil
}

// UpdateCounters sets total/processed record counts.
func (r *Repository) UpdateCounters(ctx context.Context, id uuid.UUID, total, processed int) error {
	query := `
		UPDATE ofx_imports
		SET total_records = $2, processed_records = $3
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, total, processed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// DeleteJob removes a job; staging rows go with it via cascade.
func (r *Repository) DeleteJob(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM ofx_imports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

const pendingInsertColumns = 15

// InsertPendingBatch writes one batch of staged rows, skipping rows whose
// dedup key (import, title, amount, date) already exists. Returns the
// number of rows actually inserted.
func (r *Repository) InsertPendingBatch(ctx context.Context, rows []PendingTransaction) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO ofx_pending_transactions (
			id, ofx_import_id, title, description, amount, type,
			transaction_date, fitid, trntype, checknum, memo, name,
			suggested_category_id, confidence,
			suggested_payment_method_id, payment_method_confidence
		) VALUES `)

	args := make([]any, 0, len(rows)*(pendingInsertColumns+1))
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * (pendingInsertColumns + 1)
		sb.WriteByte('(')
		for j := 0; j <= pendingInsertColumns; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", base+j+1)
		}
		sb.WriteByte(')')

		id := row.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		args = append(args,
			id, row.ImportID, row.Title, row.Description, row.Amount, row.Type,
			row.TransactionDate, row.FitID, row.TrnType, row.CheckNum, row.Memo, row.Name,
			row.SuggestedCategoryID, row.Confidence,
			row.SuggestedPaymentMethodID, row.PaymentMethodConfidence,
		)
	}
	sb.WriteString(` ON CONFLICT (ofx_import_id, title, amount, transaction_date) DO NOTHING`)

	tag, err := r.db.Exec(ctx, sb.String(), args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const pendingColumns = `id, ofx_import_id, title, description, amount, type,
		transaction_date, fitid, trntype, checknum, memo, name,
		suggested_category_id, confidence,
		suggested_payment_method_id, payment_method_confidence,
		final_category_id, created_at`

// ListPending returns the staged rows for a job in insertion order.
func (r *Repository) ListPending(ctx context.Context, importID uuid.UUID) ([]PendingTransaction, error) {
	query := `SELECT ` + pendingColumns + `
		FROM ofx_pending_transactions
		WHERE ofx_import_id = $1
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []PendingTransaction
	for rows.Next() {
		var p PendingTransaction
		if err := rows.Scan(
			&p.ID, &p.ImportID, &p.Title, &p.Description, &p.Amount, &p.Type,
			&p.TransactionDate, &p.FitID, &p.TrnType, &p.CheckNum, &p.Memo, &p.Name,
			&p.SuggestedCategoryID, &p.Confidence,
			&p.SuggestedPaymentMethodID, &p.PaymentMethodConfidence,
			&p.FinalCategoryID, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}
