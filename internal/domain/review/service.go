package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/caixadigital/ofximport/internal/domain/catalog"
	"github.com/caixadigital/ofximport/internal/domain/importer"
	"github.com/caixadigital/ofximport/pkg/metrics"
	"github.com/caixadigital/ofximport/pkg/money"
)

// PromotionThreshold is the minimum suggestion confidence that promotes a
// category without a human override.
const PromotionThreshold = 70

var (
	// ErrNoPending is returned when an import has nothing to approve.
	ErrNoPending = errors.New("no pending transactions for this import")

	// ErrNotReviewable is returned when the job is not in PENDING_REVIEW.
	ErrNotReviewable = errors.New("import is not awaiting review")

	// ErrInvalidCategory is returned for overrides naming an unknown or
	// inactive category.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidTags is returned when one or more tag ids are unknown or
	// inactive.
	ErrInvalidTags = errors.New("one or more tags are invalid or inactive")
)

// store abstracts Repository for service tests.
type store interface {
	GetPending(ctx context.Context, id uuid.UUID) (*importer.PendingTransaction, error)
	SetFinalCategory(ctx context.Context, id, categoryID uuid.UUID) error
	ReplaceTags(ctx context.Context, pendingID uuid.UUID, tagIDs []uuid.UUID) error
	InsertLedger(ctx context.Context, tx *LedgerTransaction) error
	DeletePendingForImport(ctx context.Context, importID uuid.UUID) error
}

// catalogReader validates overrides against the live catalogs.
type catalogReader interface {
	GetCategory(ctx context.Context, id uuid.UUID) (*catalog.Category, error)
	GetTags(ctx context.Context, ids []uuid.UUID) ([]catalog.Tag, error)
}

// jobReader is the slice of the importer repository the review flow needs.
type jobReader interface {
	GetJob(ctx context.Context, id uuid.UUID) (*importer.Job, error)
	ListPending(ctx context.Context, importID uuid.UUID) ([]importer.PendingTransaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next importer.Status, errorMessage *string) error
}

// OverrideResult is one row of a batch override response.
type OverrideResult struct {
	ID      uuid.UUID
	Success bool
	Error   string
}

// BatchOverrideSummary aggregates a batch override.
type BatchOverrideSummary struct {
	Total   int
	Success int
	Errors  int
	Results []OverrideResult
}

// RowError ties an approval failure to its staged row.
type RowError struct {
	PendingID uuid.UUID
	Error     string
}

// ApprovalResult reports a promotion run.
type ApprovalResult struct {
	Total   int
	Created int
	Errors  []RowError
}

// Summary describes an import's review readiness.
type Summary struct {
	TotalTransactions int
	WithFinal         int
	WithSuggested     int
	HighConfidence    int
	Uncategorized     int
	TotalAmount       string
	ReadyToApprove    bool
}

// Service is the review/approval surface.
type Service struct {
	store    store
	catalogs catalogReader
	jobs     jobReader
	logger   *slog.Logger
	metrics  *metrics.Pipeline
}

func NewService(store store, catalogs catalogReader, jobs jobReader, logger *slog.Logger, m *metrics.Pipeline) *Service {
	return &Service{
		store:    store,
		catalogs: catalogs,
		jobs:     jobs,
		logger:   logger,
		metrics:  m,
	}
}

// Override sets the final category of one staged transaction.
func (s *Service) Override(ctx context.Context, pendingID, categoryID uuid.UUID) error {
	if _, err := s.catalogs.GetCategory(ctx, categoryID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return ErrInvalidCategory
		}
		return err
	}
	return s.store.SetFinalCategory(ctx, pendingID, categoryID)
}

// CategoryOverride is one entry of a batch override request.
type CategoryOverride struct {
	ID         uuid.UUID
	CategoryID uuid.UUID
}

// BatchOverride applies overrides one by one, reporting per-row outcomes
// instead of failing the batch.
func (s *Service) BatchOverride(ctx context.Context, overrides []CategoryOverride) *BatchOverrideSummary {
	summary := &BatchOverrideSummary{Total: len(overrides)}
	for _, o := range overrides {
		result := OverrideResult{ID: o.ID, Success: true}
		if err := s.Override(ctx, o.ID, o.CategoryID); err != nil {
			result.Success = false
			result.Error = err.Error()
			summary.Errors++
		} else {
			summary.Success++
		}
		summary.Results = append(summary.Results, result)
	}
	return summary
}

// OverrideTags replaces the tags of one staged transaction, validating the
// ids first.
func (s *Service) OverrideTags(ctx context.Context, pendingID uuid.UUID, tagIDs []uuid.UUID) error {
	if _, err := s.store.GetPending(ctx, pendingID); err != nil {
		return err
	}
	if len(tagIDs) > 0 {
		if _, err := s.catalogs.GetTags(ctx, tagIDs); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return ErrInvalidTags
			}
			return err
		}
	}
	return s.store.ReplaceTags(ctx, pendingID, tagIDs)
}

// Approve promotes every staged row of an import into a ledger
// transaction. Per-row failures are collected, never aborting the batch;
// staging rows are deleted only when every row promoted cleanly, so a
// partial approval can be inspected and retried.
func (s *Service) Approve(ctx context.Context, importID uuid.UUID) (*ApprovalResult, error) {
	job, err := s.jobs.GetJob(ctx, importID)
	if err != nil {
		return nil, err
	}
	if job.Status != importer.StatusPendingReview {
		return nil, fmt.Errorf("%w: status %s", ErrNotReviewable, job.Status)
	}

	pending, err := s.jobs.ListPending(ctx, importID)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, ErrNoPending
	}

	result := &ApprovalResult{Total: len(pending)}
	for _, p := range pending {
		categoryID := p.FinalCategoryID
		if categoryID == nil && p.SuggestedCategoryID != nil &&
			p.Confidence != nil && *p.Confidence >= PromotionThreshold {
			categoryID = p.SuggestedCategoryID
		}

		ledger := &LedgerTransaction{
			ID:              uuid.New(),
			Title:           p.Title,
			Description:     p.Description,
			Amount:          p.Amount,
			Type:            p.Type,
			Status:          "PAID",
			TransactionDate: p.TransactionDate,
			DueDate:         p.TransactionDate,
			PaidDate:        p.TransactionDate,
			CategoryID:      categoryID,
			BankID:          job.BankID,
			ImportID:        importID,
		}
		if err := s.store.InsertLedger(ctx, ledger); err != nil {
			result.Errors = append(result.Errors, RowError{
				PendingID: p.ID,
				Error:     err.Error(),
			})
			continue
		}
		result.Created++
	}
	s.metrics.PromotionsCreated.Add(float64(result.Created))

	if err := s.jobs.UpdateStatus(ctx, importID, importer.StatusCompleted, nil); err != nil {
		return nil, fmt.Errorf("marking import completed: %w", err)
	}

	if len(result.Errors) == 0 {
		if err := s.store.DeletePendingForImport(ctx, importID); err != nil {
			// Leftover staging rows are harmless; the job is already
			// COMPLETED.
			s.logger.Warn("staging cleanup failed",
				slog.String("import_id", importID.String()),
				slog.String("error", err.Error()))
		}
	} else {
		s.logger.Warn("approval finished with row errors",
			slog.String("import_id", importID.String()),
			slog.Int("errors", len(result.Errors)))
	}

	return result, nil
}

// ImportSummary reports review readiness for one import.
func (s *Service) ImportSummary(ctx context.Context, importID uuid.UUID) (*Summary, error) {
	if _, err := s.jobs.GetJob(ctx, importID); err != nil {
		return nil, err
	}
	pending, err := s.jobs.ListPending(ctx, importID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{TotalTransactions: len(pending)}
	amounts := make([]int64, 0, len(pending))
	for _, p := range pending {
		amounts = append(amounts, p.Amount)

		highConfidence := p.SuggestedCategoryID != nil &&
			p.Confidence != nil && *p.Confidence >= PromotionThreshold

		if p.FinalCategoryID != nil {
			summary.WithFinal++
		}
		if p.SuggestedCategoryID != nil {
			summary.WithSuggested++
		}
		if highConfidence {
			summary.HighConfidence++
		}
		if p.FinalCategoryID == nil && !highConfidence {
			summary.Uncategorized++
		}
	}
	summary.TotalAmount = money.FormatBRL(money.SumCents(amounts))
	summary.ReadyToApprove = summary.Uncategorized == 0

	return summary, nil
}
