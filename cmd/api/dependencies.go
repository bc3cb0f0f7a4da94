package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/caixadigital/ofximport/internal/domain/catalog"
	"github.com/caixadigital/ofximport/internal/domain/classify"
	"github.com/caixadigital/ofximport/internal/domain/importer"
	"github.com/caixadigital/ofximport/internal/domain/review"
	"github.com/caixadigital/ofximport/pkg/config"
	"github.com/caixadigital/ofximport/pkg/cron"
	"github.com/caixadigital/ofximport/pkg/db"
	"github.com/caixadigital/ofximport/pkg/metrics"
	"github.com/caixadigital/ofximport/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	Registry *prometheus.Registry
	Metrics  *metrics.Pipeline

	// Repositories
	CatalogRepo *catalog.Repository
	ImportRepo  *importer.Repository
	ReviewRepo  *review.Repository

	// Services
	CatalogCache  *catalog.Cache
	Engine        *classify.Engine
	Pool          *importer.Pool
	Bulk          *importer.BulkProcessor
	ImportService *importer.Service
	ReviewService *review.Service
	FileStorage   storage.Storage
	Scheduler     *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	// Initialize repositories
	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	// Initialize services
	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	// Run migrations
	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.CatalogRepo = catalog.NewRepository(d.DB.Pool)
	d.ImportRepo = importer.NewRepository(d.DB.Pool)
	d.ReviewRepo = review.NewRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	d.Registry = prometheus.NewRegistry()
	d.Metrics = metrics.NewPipeline(d.Registry)

	// Catalog cache seeds name resolution for the bulk processor; a cold
	// cache would silently drop every suggestion.
	d.CatalogCache = catalog.NewCache(d.CatalogRepo, d.Logger)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := d.CatalogCache.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to warm catalog cache: %w", err)
	}

	// Classification engine and the worker pool that runs it
	d.Engine = classify.NewEngine()
	normalizer := importer.NewNormalizer(d.Engine)
	d.Pool = importer.NewPool(d.Config.Import.WorkerCount, normalizer, d.Logger, d.Metrics)

	// Bulk processor with batched, retried staging inserts
	d.Bulk = importer.NewBulkProcessor(
		d.ImportRepo,
		d.CatalogCache,
		d.Logger,
		d.Metrics,
		d.Config.Import.BatchSize,
		d.Config.Import.BatchPause,
		d.Config.Import.InsertRetries,
	)

	// File storage for the original uploads
	fileStorage, err := storage.NewLocalStorage(d.Config.Storage.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	d.ImportService = importer.NewService(
		d.ImportRepo, d.CatalogRepo, d.Pool, d.Bulk, d.FileStorage, d.Logger, d.Metrics)
	d.ReviewService = review.NewService(
		d.ReviewRepo, d.CatalogRepo, d.ImportRepo, d.Logger, d.Metrics)

	// Nightly catalog refresh keeps the name-resolution cache current
	d.Scheduler = cron.NewScheduler(d.CatalogCache, d.Config.Import.CatalogRefresh, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
