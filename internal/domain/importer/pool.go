package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/caixadigital/ofximport/internal/domain/ofx"
	"github.com/caixadigital/ofximport/pkg/metrics"
)

// ErrPoolFaulted is returned for work rejected because a worker crashed. A
// crashed worker cannot be trusted with its remaining chunks, so every
// in-flight job is failed, not just the one whose chunk blew up.
var ErrPoolFaulted = errors.New("worker pool faulted")

// ChunkResult is one worker's report for one contiguous chunk.
type ChunkResult struct {
	Index      int
	Candidates []Candidate
	Skipped    int
	Errors     []string
}

// PoolResult joins all chunk results for a job, restored to original file
// order.
type PoolResult struct {
	Candidates []Candidate
	Processed  int
	Skipped    int
	Errors     []string
}

type chunkJob struct {
	corrID  uuid.UUID
	index   int
	records []ofx.RawTransaction
}

type tracker struct {
	expected int
	results  []ChunkResult
	done     chan PoolResult
	failed   chan error
}

// recordNormalizer is what workers run per record; *Normalizer in
// production.
type recordNormalizer interface {
	Normalize(raw ofx.RawTransaction) (*Candidate, error)
}

// Pool is a fixed set of long-lived workers shared by all import jobs.
// Chunk i of a job always goes to worker i mod size.
type Pool struct {
	size       int
	normalizer recordNormalizer
	logger     *slog.Logger
	metrics    *metrics.Pipeline

	queues []chan chunkJob

	mu       sync.Mutex
	inflight map[uuid.UUID]*tracker
	faulted  bool
}

// NewPool starts size workers. They live for the life of the process.
func NewPool(size int, normalizer recordNormalizer, logger *slog.Logger, m *metrics.Pipeline) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		size:       size,
		normalizer: normalizer,
		logger:     logger,
		metrics:    m,
		queues:     make([]chan chunkJob, size),
		inflight:   map[uuid.UUID]*tracker{},
	}
	for i := 0; i < size; i++ {
		p.queues[i] = make(chan chunkJob, 1)
		go p.worker(i, p.queues[i])
	}
	return p
}

// Size reports the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Process splits records into ceil(N/size) sized contiguous chunks, fans
// them out, and blocks until every chunk reports back. The returned
// candidates preserve original file order regardless of worker timing.
func (p *Pool) Process(ctx context.Context, corrID uuid.UUID, records []ofx.RawTransaction) (PoolResult, error) {
	if len(records) == 0 {
		return PoolResult{}, nil
	}

	chunkSize := (len(records) + p.size - 1) / p.size
	var chunks [][]ofx.RawTransaction
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}

	t := &tracker{
		expected: len(chunks),
		done:     make(chan PoolResult, 1),
		failed:   make(chan error, 1),
	}

	p.mu.Lock()
	if p.faulted {
		p.mu.Unlock()
		return PoolResult{}, ErrPoolFaulted
	}
	p.inflight[corrID] = t
	p.mu.Unlock()

	for i, chunk := range chunks {
		job := chunkJob{corrID: corrID, index: i, records: chunk}
		select {
		case p.queues[i%p.size] <- job:
		case <-ctx.Done():
			p.drop(corrID)
			return PoolResult{}, ctx.Err()
		case err := <-t.failed:
			p.drop(corrID)
			return PoolResult{}, err
		}
	}

	select {
	case result := <-t.done:
		return result, nil
	case err := <-t.failed:
		return PoolResult{}, err
	case <-ctx.Done():
		p.drop(corrID)
		return PoolResult{}, ctx.Err()
	}
}

func (p *Pool) worker(id int, queue chan chunkJob) {
	for job := range queue {
		p.runChunk(id, job)
	}
}

// runChunk isolates one chunk so a panic faults the pool instead of
// killing the process.
func (p *Pool) runChunk(workerID int, job chunkJob) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker panicked",
				slog.Int("worker", workerID),
				slog.Int("chunk", job.index),
				slog.Any("panic", r))
			p.fault(fmt.Errorf("%w: worker %d: %v", ErrPoolFaulted, workerID, r))
		}
	}()

	result := ChunkResult{Index: job.index}
	for _, raw := range job.records {
		candidate, err := p.normalizer.Normalize(raw)
		if err != nil {
			p.logger.Warn("record skipped",
				slog.Int("chunk", job.index),
				slog.String("reason", err.Error()))
			result.Skipped++
			result.Errors = append(result.Errors, err.Error())
			p.metrics.RecordsSkipped.Inc()
			continue
		}
		if candidate.SuggestedCategory != "" {
			p.metrics.ClassifierHits.WithLabelValues("category").Inc()
		}
		if candidate.SuggestedPaymentMethod != "" {
			p.metrics.ClassifierHits.WithLabelValues("payment_method").Inc()
		}
		result.Candidates = append(result.Candidates, *candidate)
		p.metrics.RecordsProcessed.Inc()
	}
	p.metrics.ChunksProcessed.Inc()

	p.complete(job.corrID, result)
}

// complete files one chunk result and resolves the job once every expected
// chunk has reported.
func (p *Pool) complete(corrID uuid.UUID, result ChunkResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.inflight[corrID]
	if !ok {
		return
	}
	t.results = append(t.results, result)
	if len(t.results) < t.expected {
		return
	}
	delete(p.inflight, corrID)

	sort.Slice(t.results, func(i, j int) bool {
		return t.results[i].Index < t.results[j].Index
	})

	var joined PoolResult
	for _, r := range t.results {
		joined.Candidates = append(joined.Candidates, r.Candidates...)
		joined.Processed += len(r.Candidates)
		joined.Skipped += r.Skipped
		joined.Errors = append(joined.Errors, r.Errors...)
	}
	t.done <- joined
}

// fault rejects every in-flight job and refuses new work.
func (p *Pool) fault(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.faulted = true
	for corrID, t := range p.inflight {
		select {
		case t.failed <- err:
		default:
		}
		delete(p.inflight, corrID)
	}
}

func (p *Pool) drop(corrID uuid.UUID) {
	p.mu.Lock()
	delete(p.inflight, corrID)
	p.mu.Unlock()
}
