package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	app "github.com/mohammadpnp/csv-import/internal/application/importer"
	"github.com/mohammadpnp/csv-import/internal/config"
	domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"
	"github.com/mohammadpnp/csv-import/internal/infrastructure/repository"
	"github.com/mohammadpnp/csv-import/internal/infrastructure/storage"
)

// App holds the wired import pipeline. Close releases the database handles.
type App struct {
	Config    *config.Config
	Log       logrus.FieldLogger
	Registry  *prometheus.Registry
	Jobs      domain.JobRepository
	Enqueue   app.EnqueueImport
	GetJob    app.GetImportJob
	Processor *app.Processor
	Worker    *app.ImportWorker

	db   *gorm.DB
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		closeGorm(db)
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	files, err := NewObjectStore(cfg.Storage)
	if err != nil {
		pool.Close()
		closeGorm(db)
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := Wire(cfg, log, registry, repository.NewImportJobRepository(db).WithStaleAfter(cfg.Worker.StaleAfter), files,
		repository.NewOrganizationRepository(db), repository.NewRecordStore(pool))
	a.db = db
	a.pool = pool
	return a, nil
}

// Wire assembles the use cases, processor and worker around already built
// adapters.
func Wire(
	cfg *config.Config,
	log logrus.FieldLogger,
	registry *prometheus.Registry,
	jobs domain.JobRepository,
	files domain.ObjectStore,
	orgs domain.OrganizationDirectory,
	store domain.RecordStore,
) *App {
	processor := app.NewProcessor(jobs, files, orgs, store, app.NewMetrics(registry), log, app.ProcessorConfig{
		BatchSize:            cfg.Import.BatchSize,
		ProgressInterval:     cfg.Import.ProgressInterval,
		RepositoryTenantSlug: cfg.Import.RepositoryTenantSlug,
	})

	worker := app.NewImportWorker(jobs, processor, log, app.ImportWorkerConfig{
		Workers:      cfg.Worker.Workers,
		PollInterval: cfg.Worker.PollInterval,
	})

	return &App{
		Config:    cfg,
		Log:       log,
		Registry:  registry,
		Jobs:      jobs,
		Enqueue:   app.NewEnqueueImport(jobs),
		GetJob:    app.NewGetImportJob(jobs),
		Processor: processor,
		Worker:    worker,
	}
}

func (a *App) HTTPServer() *echo.Echo {
	return NewHTTPServer(ServerDeps{
		Enqueue:            a.Enqueue,
		GetJob:             a.GetJob,
		Processor:          a.Processor,
		Gatherer:           a.Registry,
		CORSAllowedOrigins: a.Config.CORSAllowedOrigins,
	})
}

func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.db != nil {
		closeGorm(a.db)
	}
}

// NewObjectStore picks the storage backend named in the configuration.
func NewObjectStore(cfg config.StorageOptions) (domain.ObjectStore, error) {
	switch cfg.Backend {
	case config.StorageLocal:
		return storage.NewLocalStore(cfg.LocalDir), nil
	case config.StorageS3, "":
		store, err := storage.NewS3Store(storage.S3Config{
			Bucket:          cfg.Bucket,
			Endpoint:        cfg.Endpoint,
			Region:          cfg.Region,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			UsePathStyle:    cfg.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("create s3 store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func closeGorm(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
