package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caixadigital/ofximport/internal/domain/catalog"
	"github.com/caixadigital/ofximport/internal/domain/ofx"
	"github.com/caixadigital/ofximport/pkg/metrics"
	"github.com/caixadigital/ofximport/pkg/storage"
)

var (
	// ErrEmptyFile is returned when the upload carries no data.
	ErrEmptyFile = errors.New("uploaded file is empty")

	// ErrWrongExtension is returned for files that are not .ofx.
	ErrWrongExtension = errors.New("file must have .ofx extension")

	// ErrUnknownBank is returned when the target bank does not exist or is
	// inactive.
	ErrUnknownBank = errors.New("unknown or inactive bank")
)

// bankGetter is the slice of the catalog repository the service needs.
type bankGetter interface {
	GetBank(ctx context.Context, id uuid.UUID) (*catalog.Bank, error)
}

// jobStore abstracts the repository for service tests.
type jobStore interface {
	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
	ListJobs(ctx context.Context) ([]Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next Status, errorMessage *string) error
	DeleteJob(ctx context.Context, id uuid.UUID) error
	ListPending(ctx context.Context, importID uuid.UUID) ([]PendingTransaction, error)
}

// persister abstracts the bulk processor for service tests.
type persister interface {
	Persist(ctx context.Context, importID uuid.UUID, candidates []Candidate) (int, error)
	UpdateProgress(ctx context.Context, importID uuid.UUID, total, processed int)
}

// UploadInput is the upload entry point's request.
type UploadInput struct {
	FileName    string
	BankID      uuid.UUID
	Description *string
	Data        []byte
}

// UploadResult is returned immediately; processing continues asynchronously.
type UploadResult struct {
	JobID  uuid.UUID
	Status Status
}

// JobStatus is the polling view of a job.
type JobStatus struct {
	Status           Status
	Progress         int
	TotalRecords     int
	ProcessedRecords int
	ErrorMessage     *string
	ImportDate       time.Time
	Pollable         bool
}

// JobDetail is a job with its staged pending transactions.
type JobDetail struct {
	Job     Job
	Bank    *catalog.Bank
	Pending []PendingTransaction
}

// JobMetrics summarizes classification coverage for one job.
type JobMetrics struct {
	TotalPending      int
	WithCategory      int
	WithPaymentMethod int
	CategoryRate      float64
	PaymentMethodRate float64
	PoolSize          int
}

// Service is the import job orchestrator. Other modules call it in-process.
type Service struct {
	jobs    jobStore
	banks   bankGetter
	pool    *Pool
	bulk    persister
	files   storage.Storage
	logger  *slog.Logger
	metrics *metrics.Pipeline
}

func NewService(jobs jobStore, banks bankGetter, pool *Pool, bulk persister, files storage.Storage, logger *slog.Logger, m *metrics.Pipeline) *Service {
	return &Service{
		jobs:    jobs,
		banks:   banks,
		pool:    pool,
		bulk:    bulk,
		files:   files,
		logger:  logger,
		metrics: m,
	}
}

// Upload validates the request, creates a PENDING job, stores the original
// file, and kicks off the asynchronous pipeline. It returns before any
// record work happens.
func (s *Service) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if len(input.Data) == 0 {
		return nil, ErrEmptyFile
	}
	if !strings.EqualFold(filepath.Ext(input.FileName), ".ofx") {
		return nil, ErrWrongExtension
	}
	if _, err := s.banks.GetBank(ctx, input.BankID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrUnknownBank
		}
		return nil, fmt.Errorf("looking up bank: %w", err)
	}

	job := &Job{
		ID:          uuid.New(),
		BankID:      input.BankID,
		FileName:    input.FileName,
		Description: input.Description,
		Status:      StatusPending,
	}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating import job: %w", err)
	}

	if _, err := s.files.Upload(ctx, job.ID, input.FileName, "application/x-ofx", bytes.NewReader(input.Data)); err != nil {
		// The original file is audit material, not pipeline input; keep
		// going without it.
		s.logger.Warn("storing original upload failed",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
	}

	s.metrics.ImportsStarted.Inc()
	go s.run(job.ID, input.Data)

	return &UploadResult{JobID: job.ID, Status: StatusPending}, nil
}

// run is the asynchronous pipeline for one job. It owns every status
// transition after PENDING.
func (s *Service) run(jobID uuid.UUID, data []byte) {
	ctx := context.Background()
	started := time.Now()
	logger := s.logger.With(slog.String("job_id", jobID.String()))

	if err := s.jobs.UpdateStatus(ctx, jobID, StatusProcessing, nil); err != nil {
		logger.Error("cannot start processing", slog.String("error", err.Error()))
		return
	}

	stmt, err := ofx.Parse(data)
	if err != nil {
		s.fail(ctx, jobID, logger, fmt.Sprintf("invalid statement file: %v", err))
		return
	}
	total := len(stmt.Transactions)
	s.metrics.RecordsParsed.Add(float64(total))
	logger.Info("statement parsed", slog.Int("records", total))

	s.bulk.UpdateProgress(ctx, jobID, total, 0)

	result, err := s.pool.Process(ctx, jobID, stmt.Transactions)
	if err != nil {
		s.fail(ctx, jobID, logger, fmt.Sprintf("processing failed: %v", err))
		return
	}
	if result.Skipped > 0 {
		logger.Warn("records skipped during normalization",
			slog.Int("skipped", result.Skipped))
	}

	if _, err := s.bulk.Persist(ctx, jobID, result.Candidates); err != nil {
		s.fail(ctx, jobID, logger, fmt.Sprintf("persisting transactions: %v", err))
		return
	}

	s.bulk.UpdateProgress(ctx, jobID, total, result.Processed)

	if err := s.jobs.UpdateStatus(ctx, jobID, StatusPendingReview, nil); err != nil {
		logger.Error("cannot finish job", slog.String("error", err.Error()))
		return
	}

	s.metrics.ImportsCompleted.WithLabelValues(string(StatusPendingReview)).Inc()
	s.metrics.ProcessDuration.Observe(time.Since(started).Seconds())
	logger.Info("import ready for review",
		slog.Int("total", total),
		slog.Int("processed", result.Processed),
		slog.Duration("took", time.Since(started)))
}

func (s *Service) fail(ctx context.Context, jobID uuid.UUID, logger *slog.Logger, message string) {
	logger.Error("import failed", slog.String("reason", message))
	if err := s.jobs.UpdateStatus(ctx, jobID, StatusFailed, &message); err != nil {
		logger.Error("cannot mark job failed", slog.String("error", err.Error()))
	}
	s.metrics.ImportsCompleted.WithLabelValues(string(StatusFailed)).Inc()
}

// Status returns the polling view of a job.
func (s *Service) Status(ctx context.Context, id uuid.UUID) (*JobStatus, error) {
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return &JobStatus{
		Status:           job.Status,
		Progress:         job.Progress(),
		TotalRecords:     job.TotalRecords,
		ProcessedRecords: job.ProcessedRecords,
		ErrorMessage:     job.ErrorMessage,
		ImportDate:       job.ImportDate,
		Pollable:         job.Status.Pollable(),
	}, nil
}

// List returns all import jobs.
func (s *Service) List(ctx context.Context) ([]Job, error) {
	return s.jobs.ListJobs(ctx)
}

// Get returns a job with its bank and staged pending transactions.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*JobDetail, error) {
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	bank, err := s.banks.GetBank(ctx, job.BankID)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return nil, err
	}
	pending, err := s.jobs.ListPending(ctx, id)
	if err != nil {
		return nil, err
	}
	return &JobDetail{Job: *job, Bank: bank, Pending: pending}, nil
}

// Delete removes a job and, via cascade, its staging rows and stored file.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.jobs.DeleteJob(ctx, id); err != nil {
		return err
	}
	if err := s.files.Delete(ctx, id); err != nil {
		s.logger.Warn("deleting stored upload failed",
			slog.String("job_id", id.String()),
			slog.String("error", err.Error()))
	}
	return nil
}

// Metrics reports classification coverage for one job's staged rows.
func (s *Service) Metrics(ctx context.Context, id uuid.UUID) (*JobMetrics, error) {
	if _, err := s.jobs.GetJob(ctx, id); err != nil {
		return nil, err
	}
	pending, err := s.jobs.ListPending(ctx, id)
	if err != nil {
		return nil, err
	}

	m := &JobMetrics{
		TotalPending: len(pending),
		PoolSize:     s.pool.Size(),
	}
	for _, p := range pending {
		if p.SuggestedCategoryID != nil {
			m.WithCategory++
		}
		if p.SuggestedPaymentMethodID != nil {
			m.WithPaymentMethod++
		}
	}
	if m.TotalPending > 0 {
		m.CategoryRate = float64(m.WithCategory) / float64(m.TotalPending)
		m.PaymentMethodRate = float64(m.WithPaymentMethod) / float64(m.TotalPending)
	}
	return m, nil
}
