package importer

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"
)

type processorJobRepo interface {
	progressJobRepo
	Get(ctx context.Context, jobID string) (*domain.ImportJob, error)
	MarkProcessing(ctx context.Context, jobID string) error
	MarkFileDeleted(ctx context.Context, jobID string, at time.Time) error
	Complete(ctx context.Context, jobID string, summary domain.Summary) error
	Fail(ctx context.Context, jobID string, failure domain.Failure) error
}

type ProcessorConfig struct {
	BatchSize        int
	ProgressInterval time.Duration
	// RepositoryTenantSlug names the only organization allowed to run
	// repository imports. Empty disables repository imports entirely.
	RepositoryTenantSlug string
}

// ProcessResult is returned for a job that completed.
type ProcessResult struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
}

// Processor runs one import job from download to its terminal status.
type Processor struct {
	jobs    processorJobRepo
	files   domain.ObjectStore
	orgs    domain.OrganizationDirectory
	store   domain.RecordStore
	metrics *Metrics
	log     logrus.FieldLogger
	cfg     ProcessorConfig
	now     func() time.Time
}

func NewProcessor(
	jobs processorJobRepo,
	files domain.ObjectStore,
	orgs domain.OrganizationDirectory,
	store domain.RecordStore,
	metrics *Metrics,
	log logrus.FieldLogger,
	cfg ProcessorConfig,
) *Processor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultBatchSize
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 5 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Processor{
		jobs:    jobs,
		files:   files,
		orgs:    orgs,
		store:   store,
		metrics: metrics,
		log:     log,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Process runs the job identified by jobID. Any error after the job is loaded
// leaves the job failed; the returned error carries the cause.
func (p *Processor) Process(ctx context.Context, jobID string) (result ProcessResult, err error) {
	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			failErr := p.jobs.Fail(context.WithoutCancel(ctx), jobID, domain.Failure{
				Message:  err.Error(),
				Details:  domain.StageDetails{Message: "Import failed", Error: err.Error()},
				FailedAt: p.now(),
			})
			if failErr != nil && !errors.Is(failErr, domain.ErrJobNotFound) {
				p.log.WithError(failErr).WithField("job_id", jobID).Warn("record failure for missing import job")
			}
		}
		return ProcessResult{}, fmt.Errorf("load import job %s: %w", jobID, err)
	}
	if job.Status.Terminal() {
		return ProcessResult{}, fmt.Errorf("%w: %s is %s", ErrJobFinished, job.ID, job.Status)
	}

	run := &jobRun{
		p:       p,
		job:     *job,
		stats:   &runStats{},
		tracker: newProgressTracker(p.jobs, job.ID, p.cfg.ProgressInterval),
		started: p.now(),
		log: p.log.WithFields(logrus.Fields{
			"job_id":      job.ID,
			"import_type": job.ImportType,
		}),
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			run.fail(ctx, err, string(debug.Stack()))
			result = ProcessResult{}
		}
	}()

	if err := run.execute(ctx); err != nil {
		run.fail(ctx, err, "")
		return ProcessResult{}, err
	}

	return ProcessResult{Processed: run.stats.success, Errors: run.stats.errors}, nil
}

// jobRun holds the state of a single, sequential job execution.
type jobRun struct {
	p       *Processor
	job     domain.ImportJob
	stats   *runStats
	tracker *progressTracker
	started time.Time
	log     logrus.FieldLogger
}

func (r *jobRun) execute(ctx context.Context) error {
	r.log.Info("import job started")

	if err := r.p.jobs.MarkProcessing(ctx, r.job.ID); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	if err := r.tracker.Enter(ctx, domain.StageDownloading, domain.StageDetails{
		Message: fmt.Sprintf("Downloading %s", r.job.FileName),
	}); err != nil {
		return err
	}
	content, err := r.p.files.Download(ctx, r.job.FilePath)
	if err != nil {
		return fmt.Errorf("download %s: %w", r.job.FilePath, err)
	}

	if err := r.tracker.Enter(ctx, domain.StageValidating, domain.StageDetails{Message: "Validating file"}); err != nil {
		return err
	}
	lines, headers, err := r.validate(ctx, content)
	if err != nil {
		return err
	}
	if err := r.tracker.Checkpoint(ctx, domain.StageValidating, r.stats, fmt.Sprintf("File validated: %d rows", r.stats.total)); err != nil {
		return err
	}

	writer, remaining, err := r.parseAndInsert(ctx, lines, headers)
	if err != nil {
		return err
	}

	return r.finalize(ctx, writer, remaining)
}

func (r *jobRun) validate(ctx context.Context, content []byte) ([]string, []string, error) {
	lines := splitLines(content)
	if len(lines) == 0 {
		return nil, nil, ErrEmptyFile
	}

	rawHeaders, err := TokenizeLine(lines[0])
	if err != nil {
		return nil, nil, fmt.Errorf("parse header row: %w", err)
	}
	headers := NormalizeHeaders(rawHeaders, r.job.ImportType)
	r.stats.total = len(lines) - 1

	if r.job.ImportType == domain.TypeRepository {
		if r.stats.total > domain.MaxRepositoryRows {
			return nil, nil, fmt.Errorf("%w: %d data rows, maximum is %d", ErrRowLimitExceeded, r.stats.total, domain.MaxRepositoryRows)
		}
		if err := r.checkTenantEligibility(ctx); err != nil {
			return nil, nil, err
		}
	}

	if r.job.ImportType.RequiresTarget() && r.job.TargetID == "" {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingTargetID, r.job.ImportType)
	}

	if missing := missingColumns(headers, RequiredColumns(r.job.ImportType)); len(missing) > 0 {
		return nil, nil, &MissingColumnsError{Columns: missing}
	}

	return lines, headers, nil
}

func (r *jobRun) checkTenantEligibility(ctx context.Context) error {
	slug, err := r.p.orgs.Slug(ctx, r.job.OrganizationID)
	if err != nil {
		return fmt.Errorf("look up organization %s: %w", r.job.OrganizationID, err)
	}
	if r.p.cfg.RepositoryTenantSlug == "" || slug != r.p.cfg.RepositoryTenantSlug {
		return fmt.Errorf("%w: %s", ErrTenantNotEligible, slug)
	}
	return nil
}

// parseAndInsert maps every data line and writes full batches. It returns the
// writer and the final partial batch, which finalize flushes.
func (r *jobRun) parseAndInsert(ctx context.Context, lines []string, headers []string) (BatchWriter, []domain.Record, error) {
	mapper, err := MapperFor(r.job.ImportType)
	if err != nil {
		return nil, nil, err
	}
	writer, err := WriterFor(r.job.ImportType, r.p.store)
	if err != nil {
		return nil, nil, err
	}

	if err := r.tracker.Enter(ctx, domain.StageParsing, r.stats.details(fmt.Sprintf("Parsing %d rows", r.stats.total))); err != nil {
		return nil, nil, err
	}

	batch := make([]domain.Record, 0, r.p.cfg.BatchSize)
	for i := 1; i < len(lines); i++ {
		rowNumber := i + 1
		record, rowErr := mapLine(lines[i], headers, mapper)
		r.stats.processed++

		if rowErr != nil {
			r.stats.recordRowError(rowNumber, lines[i], rowErr)
			r.log.WithFields(logrus.Fields{"row": rowNumber, "error": rowErr}).Debug("skipping row")
		} else {
			batch = append(batch, record)
		}

		if len(batch) >= r.p.cfg.BatchSize {
			if err := r.flush(ctx, writer, batch); err != nil {
				return nil, nil, err
			}
			batch = batch[:0]
			continue
		}

		if err := r.tracker.Tick(ctx, r.stats); err != nil {
			return nil, nil, err
		}
	}

	return writer, batch, nil
}

// mapLine turns one raw line into a record or a row error.
func mapLine(line string, headers []string, mapper RowMapper) (domain.Record, error) {
	fields, err := TokenizeLine(line)
	if err != nil {
		return nil, err
	}
	return mapper.MapRow(newRow(headers, fields))
}

func (r *jobRun) flush(ctx context.Context, writer BatchWriter, batch []domain.Record) error {
	if len(batch) == 0 {
		return nil
	}

	started := time.Now()
	result, err := writer.WriteBatch(ctx, r.job, batch)
	r.p.metrics.batchWritten(r.job.ImportType, time.Since(started))
	if err != nil {
		return fmt.Errorf("write batch %d: %w", r.stats.batches+1, err)
	}
	r.stats.recordBatch(result)

	r.log.WithFields(logrus.Fields{
		"batch":    r.stats.batches,
		"inserted": result.Inserted,
		"updated":  result.Updated,
		"skipped":  result.Skipped,
	}).Info("batch written")

	return r.tracker.Checkpoint(ctx, domain.StageInserting, r.stats, fmt.Sprintf(
		"Batch %d written: %d of %d rows processed, %d records saved",
		r.stats.batches, r.stats.processed, r.stats.total, r.stats.success,
	))
}

func (r *jobRun) finalize(ctx context.Context, writer BatchWriter, remaining []domain.Record) error {
	if err := r.tracker.Enter(ctx, domain.StageFinalizing, r.stats.details("Finalizing import")); err != nil {
		return err
	}
	if err := r.flush(ctx, writer, remaining); err != nil {
		return err
	}

	r.deleteSource(ctx)

	completedAt := r.p.now()
	details := r.stats.details(fmt.Sprintf(
		"Import completed: %d records saved, %d errors, %d duplicates skipped",
		r.stats.success, r.stats.errors, r.stats.skipped,
	))
	details.DurationMillis = completedAt.Sub(r.started).Milliseconds()

	if err := r.p.jobs.Complete(ctx, r.job.ID, domain.Summary{
		Progress:    r.stats.progress(),
		Errors:      r.stats.diagnostics,
		Details:     details,
		CompletedAt: completedAt,
	}); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}

	r.p.metrics.jobFinished(r.job.ImportType, domain.StatusCompleted)
	r.p.metrics.rowsHandled(r.job.ImportType, "written", r.stats.success)
	r.p.metrics.rowsHandled(r.job.ImportType, "skipped", r.stats.skipped)
	r.p.metrics.rowsHandled(r.job.ImportType, "error", r.stats.errors)

	r.log.WithFields(logrus.Fields{
		"processed":   r.stats.processed,
		"success":     r.stats.success,
		"errors":      r.stats.errors,
		"skipped":     r.stats.skipped,
		"duration_ms": details.DurationMillis,
	}).Info("import job completed")
	return nil
}

// deleteSource removes the uploaded file. Failures are logged and ignored.
func (r *jobRun) deleteSource(ctx context.Context) {
	if err := r.p.files.Delete(ctx, r.job.FilePath); err != nil {
		r.log.WithError(err).WithField("file_path", r.job.FilePath).Warn("delete source file")
		return
	}
	if err := r.p.jobs.MarkFileDeleted(ctx, r.job.ID, r.p.now()); err != nil {
		r.log.WithError(err).Warn("record source file deletion")
	}
}

func (r *jobRun) fail(ctx context.Context, cause error, stack string) {
	ctx = context.WithoutCancel(ctx)
	failedAt := r.p.now()

	details := r.stats.details("Import failed: " + cause.Error())
	details.Error = cause.Error()
	details.FailedStage = r.tracker.Stage()
	details.FailedAt = &failedAt
	details.Stack = stack
	var missing *MissingColumnsError
	if errors.As(cause, &missing) {
		details.MissingColumns = missing.Columns
	}

	log := r.log.WithError(cause).WithField("stage", r.tracker.Stage())
	if stack != "" {
		log = log.WithField("stack", stack)
	}
	log.Error("import job failed")

	if err := r.p.jobs.Fail(ctx, r.job.ID, domain.Failure{
		Message:  cause.Error(),
		Details:  details,
		Progress: r.stats.progress(),
		Errors:   r.stats.diagnostics,
		FailedAt: failedAt,
	}); err != nil {
		r.log.WithError(err).Error("record import job failure")
	}
	r.p.metrics.jobFinished(r.job.ImportType, domain.StatusFailed)
}
