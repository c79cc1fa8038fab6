package importer

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"
)

type jobClaimer interface {
	ClaimNext(ctx context.Context) (*domain.ImportJob, error)
}

type jobProcessor interface {
	Process(ctx context.Context, jobID string) (ProcessResult, error)
}

type ImportWorkerConfig struct {
	Workers      int
	PollInterval time.Duration
}

// ImportWorker claims pending jobs and runs each one to completion. Workers
// never share a job; every claimed job runs on a single goroutine.
type ImportWorker struct {
	claimer   jobClaimer
	processor jobProcessor
	log       logrus.FieldLogger
	cfg       ImportWorkerConfig
}

func NewImportWorker(claimer jobClaimer, processor jobProcessor, log logrus.FieldLogger, cfg ImportWorkerConfig) *ImportWorker {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Workers > 10 {
		cfg.Workers = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &ImportWorker{
		claimer:   claimer,
		processor: processor,
		log:       log,
		cfg:       cfg,
	}
}

// Run blocks until ctx is cancelled.
func (w *ImportWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.cfg.Workers; i++ {
		worker := i
		g.Go(func() error {
			w.workerLoop(ctx, worker)
			return nil
		})
	}
	return g.Wait()
}

func (w *ImportWorker) workerLoop(ctx context.Context, worker int) {
	log := w.log.WithField("worker", worker)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.claimer.ClaimNext(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("claim next import job")
			}
			if !sleepWithContext(ctx, w.cfg.PollInterval) {
				return
			}
			continue
		}

		if job == nil {
			if !sleepWithContext(ctx, w.cfg.PollInterval) {
				return
			}
			continue
		}

		// A claimed job runs to completion; ctx only stops claiming.
		result, err := w.processor.Process(context.WithoutCancel(ctx), job.ID)
		if err != nil {
			log.WithError(err).WithField("job_id", job.ID).Warn("import job failed")
			continue
		}
		log.WithFields(logrus.Fields{
			"job_id":    job.ID,
			"processed": result.Processed,
			"errors":    result.Errors,
		}).Info("import job processed")
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
