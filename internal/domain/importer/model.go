// Package importer owns the statement import pipeline: the job state
// machine, the worker pool that normalizes and classifies records, and the
// bulk persistence of staged pending transactions.
package importer

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an import job. Transitions are
// monotonic; FAILED and COMPLETED accept no further writes.
type Status string

const (
	StatusPending       Status = "PENDING"
	StatusProcessing    Status = "PROCESSING"
	StatusPendingReview Status = "PENDING_REVIEW"
	StatusFailed        Status = "FAILED"
	StatusCompleted     Status = "COMPLETED"
)

// allowedTransitions encodes the state machine. A job may also fail
// straight from PENDING when the pipeline dies before any record work.
var allowedTransitions = map[Status][]Status{
	StatusPending:       {StatusProcessing, StatusFailed},
	StatusProcessing:    {StatusPendingReview, StatusFailed},
	StatusPendingReview: {StatusCompleted},
}

// CanTransition reports whether moving from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Pollable reports whether a client should keep polling the job.
func (s Status) Pollable() bool {
	return s == StatusPending || s == StatusProcessing
}

// Job is one statement import.
type Job struct {
	ID               uuid.UUID
	BankID           uuid.UUID
	FileName         string
	Description      *string
	Status           Status
	TotalRecords     int
	ProcessedRecords int
	ErrorMessage     *string
	ImportDate       time.Time
}

// Progress returns the whole-percent completion, 0 when nothing is counted
// yet.
func (j *Job) Progress() int {
	if j.TotalRecords == 0 {
		return 0
	}
	return j.ProcessedRecords * 100 / j.TotalRecords
}

// Candidate is a normalized, classified record produced by a worker. The
// classifier suggestions still carry symbolic names; the bulk processor
// resolves them to catalog ids before persistence.
type Candidate struct {
	Title           string
	Description     string
	Amount          int64 // minor units, non-negative
	Type            string
	TransactionDate time.Time
	FitID           *string
	TrnType         string
	CheckNum        *string
	Memo            string
	Name            string

	SuggestedCategory       string // catalog name, "" when no rule matched
	CategoryConfidence      int
	CategoryReason          string
	SuggestedPaymentMethod  string
	PaymentMethodConfidence int
	PaymentMethodReason     string
}

// PendingTransaction is a staged row awaiting review, with suggestions
// already resolved to catalog ids.
type PendingTransaction struct {
	ID              uuid.UUID
	ImportID        uuid.UUID
	Title           string
	Description     string
	Amount          int64
	Type            string
	TransactionDate time.Time
	FitID           *string
	TrnType         string
	CheckNum        *string
	Memo            string
	Name            string

	SuggestedCategoryID      *uuid.UUID
	Confidence               *int
	SuggestedPaymentMethodID *uuid.UUID
	PaymentMethodConfidence  *int
	FinalCategoryID          *uuid.UUID
	CreatedAt                time.Time
}
