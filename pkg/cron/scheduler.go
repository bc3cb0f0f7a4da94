// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// refresher reloads a cached catalog snapshot.
type refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	catalogs refresher
	spec     string
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that refreshes the catalog cache on the
// given cron expression (standard 5-field format).
func NewScheduler(catalogs refresher, spec string, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		catalogs: catalogs,
		spec:     spec,
		logger:   logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.refreshCatalogs)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("catalog_refresh", s.spec),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the catalog refresh (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.refreshCatalogs()
}

func (s *Scheduler) refreshCatalogs() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.catalogs.Refresh(ctx); err != nil {
		s.logger.Error("catalog cache refresh failed", slog.Any("error", err))
		return
	}
	s.logger.Info("catalog cache refreshed")
}
