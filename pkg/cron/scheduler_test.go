package cron

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(_ context.Context) error {
	c.calls.Add(1)
	return c.err
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewScheduler(&countingRefresher{}, "not a cron spec", slog.Default())
	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(&countingRefresher{}, "0 2 * * *", slog.Default())
	require.NoError(t, s.Start())

	done := s.Stop()
	select {
	case <-done.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestRunNow(t *testing.T) {
	ref := &countingRefresher{}
	s := NewScheduler(ref, "0 2 * * *", slog.Default())

	s.RunNow()
	assert.Eventually(t, func() bool {
		return ref.calls.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRunNowLogsRefreshError(t *testing.T) {
	ref := &countingRefresher{err: errors.New("db down")}
	s := NewScheduler(ref, "0 2 * * *", slog.Default())

	s.RunNow()
	assert.Eventually(t, func() bool {
		return ref.calls.Load() == 1
	}, time.Second, 10*time.Millisecond)
}
