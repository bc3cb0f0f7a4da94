package importer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caixadigital/ofximport/internal/domain/classify"
	"github.com/caixadigital/ofximport/internal/domain/ofx"
	"github.com/caixadigital/ofximport/pkg/metrics"
)

func newTestPool(t *testing.T, size int, n recordNormalizer) *Pool {
	t.Helper()
	if n == nil {
		n = NewNormalizer(classify.NewEngine())
	}
	return NewPool(size, n, slog.Default(), metrics.NewPipeline(prometheus.NewRegistry()))
}

func makeRecords(count int) []ofx.RawTransaction {
	records := make([]ofx.RawTransaction, count)
	for i := range records {
		records[i] = ofx.RawTransaction{
			TrnType:    "DEBIT",
			PostedDate: "20240110",
			Amount:     "-10.00",
			Memo:       fmt.Sprintf("RECORD %04d", i),
		}
	}
	return records
}

// slowNormalizer delays odd-indexed chunks so chunk completion order is
// adversarial to file order.
type slowNormalizer struct {
	inner *Normalizer
	mu    sync.Mutex
	calls int
}

func (s *slowNormalizer) Normalize(raw ofx.RawTransaction) (*Candidate, error) {
	s.mu.Lock()
	s.calls++
	calls := s.calls
	s.mu.Unlock()
	if calls%3 == 0 {
		time.Sleep(2 * time.Millisecond)
	}
	return s.inner.Normalize(raw)
}

func TestPoolPreservesFileOrder(t *testing.T) {
	pool := newTestPool(t, 4, &slowNormalizer{inner: NewNormalizer(classify.NewEngine())})
	records := makeRecords(37)

	result, err := pool.Process(context.Background(), uuid.New(), records)
	require.NoError(t, err)
	require.Len(t, result.Candidates, 37)

	for i, c := range result.Candidates {
		assert.Equal(t, fmt.Sprintf("RECORD %04d", i), c.Title)
	}
}

func TestPoolProcessedCountMatchesSum(t *testing.T) {
	pool := newTestPool(t, 2, nil)

	records := makeRecords(10)
	records[3].Amount = "0"
	records[7].PostedDate = ""

	result, err := pool.Process(context.Background(), uuid.New(), records)
	require.NoError(t, err)

	assert.Equal(t, 8, result.Processed)
	assert.Equal(t, 2, result.Skipped)
	assert.Len(t, result.Candidates, 8)
	assert.Len(t, result.Errors, 2)
}

func TestPoolEmptyInput(t *testing.T) {
	pool := newTestPool(t, 2, nil)

	result, err := pool.Process(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Zero(t, result.Processed)
}

func TestPoolSingleRecord(t *testing.T) {
	pool := newTestPool(t, 2, nil)

	result, err := pool.Process(context.Background(), uuid.New(), makeRecords(1))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
}

type panickyNormalizer struct{}

func (panickyNormalizer) Normalize(ofx.RawTransaction) (*Candidate, error) {
	panic("worker blew up")
}

func TestPoolWorkerPanicFailsInFlightWork(t *testing.T) {
	pool := newTestPool(t, 2, panickyNormalizer{})

	_, err := pool.Process(context.Background(), uuid.New(), makeRecords(4))
	require.ErrorIs(t, err, ErrPoolFaulted)

	// A faulted pool refuses new work.
	_, err = pool.Process(context.Background(), uuid.New(), makeRecords(4))
	assert.ErrorIs(t, err, ErrPoolFaulted)
}

func TestPoolConcurrentJobs(t *testing.T) {
	pool := newTestPool(t, 2, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := pool.Process(context.Background(), uuid.New(), makeRecords(20))
			assert.NoError(t, err)
			assert.Equal(t, 20, result.Processed)
		}()
	}
	wg.Wait()
}
