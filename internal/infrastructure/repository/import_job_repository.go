package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"
	"github.com/mohammadpnp/csv-import/internal/infrastructure/db/models"
)

var _ domain.JobRepository = (*ImportJobRepository)(nil)

var terminalStatuses = []string{string(domain.StatusCompleted), string(domain.StatusFailed)}

// DefaultStaleAfter is how long a processing job may go without a write
// before another worker may claim it again.
const DefaultStaleAfter = 30 * time.Minute

type ImportJobRepository struct {
	db         *gorm.DB
	staleAfter time.Duration
}

func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db, staleAfter: DefaultStaleAfter}
}

// WithStaleAfter sets the reclaim window for abandoned processing jobs. Zero
// or negative disables reclaiming.
func (r *ImportJobRepository) WithStaleAfter(d time.Duration) *ImportJobRepository {
	r.staleAfter = d
	return r
}

func (r *ImportJobRepository) Enqueue(ctx context.Context, job domain.NewImportJob) (string, error) {
	row := models.ImportJob{
		OrganizationID: job.OrganizationID,
		UserID:         job.UserID,
		FileName:       job.FileName,
		FilePath:       job.FilePath,
		ImportType:     string(job.ImportType),
		TargetID:       nullableText(job.TargetID),
		Status:         string(domain.StatusPending),
		StageDetails:   []byte(`{}`),
		Errors:         []byte(`[]`),
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("create import job: %w", err)
	}

	return row.ID, nil
}

func (r *ImportJobRepository) Get(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	var row models.ImportJob

	err := r.db.WithContext(ctx).First(&row, "id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("get import job: %w", err)
	}

	return toDomainJob(row)
}

// ClaimNext moves the oldest claimable job to processing and returns it, or
// nil when there is none. A job is claimable when it is pending, or when it is
// processing but has not been written to within the stale window, which means
// its worker died. Concurrent callers never claim the same job.
func (r *ImportJobRepository) ClaimNext(ctx context.Context) (*domain.ImportJob, error) {
	var rows []models.ImportJob

	reclaim := r.staleAfter > 0
	staleBefore := time.Now().Add(-r.staleAfter)

	err := r.db.WithContext(ctx).Raw(`
UPDATE import_jobs
SET status = ?, updated_at = NOW()
WHERE id = (
    SELECT id
    FROM import_jobs
    WHERE status = ?
       OR (? AND status = ? AND updated_at < ?)
    ORDER BY created_at
    FOR UPDATE SKIP LOCKED
    LIMIT 1
)
RETURNING *
`, string(domain.StatusProcessing), string(domain.StatusPending),
		reclaim, string(domain.StatusProcessing), staleBefore,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("claim next import job: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return toDomainJob(rows[0])
}

func (r *ImportJobRepository) MarkProcessing(ctx context.Context, jobID string) error {
	return r.update(ctx, jobID, "mark processing", map[string]any{
		"status": string(domain.StatusProcessing),
	})
}

func (r *ImportJobRepository) UpdateStage(ctx context.Context, jobID string, stage domain.Stage, details domain.StageDetails) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode stage details: %w", err)
	}

	return r.update(ctx, jobID, "update stage", map[string]any{
		"current_stage": string(stage),
		"stage_details": payload,
	})
}

func (r *ImportJobRepository) UpdateProgress(ctx context.Context, jobID string, stage domain.Stage, progress domain.Progress, details domain.StageDetails) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode stage details: %w", err)
	}

	values := progressColumns(progress)
	values["current_stage"] = string(stage)
	values["stage_details"] = payload
	return r.update(ctx, jobID, "update progress", values)
}

func (r *ImportJobRepository) MarkFileDeleted(ctx context.Context, jobID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"file_deleted":    true,
			"file_deleted_at": at,
		})
	if result.Error != nil {
		return fmt.Errorf("mark file deleted: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *ImportJobRepository) Complete(ctx context.Context, jobID string, summary domain.Summary) error {
	details, err := json.Marshal(summary.Details)
	if err != nil {
		return fmt.Errorf("encode stage details: %w", err)
	}
	diagnostics, err := encodeRowErrors(summary.Errors)
	if err != nil {
		return err
	}

	values := progressColumns(summary.Progress)
	values["status"] = string(domain.StatusCompleted)
	values["current_stage"] = string(domain.StageCompleted)
	values["stage_details"] = details
	values["errors"] = diagnostics
	values["completed_at"] = summary.CompletedAt
	return r.update(ctx, jobID, "complete import job", values)
}

func (r *ImportJobRepository) Fail(ctx context.Context, jobID string, failure domain.Failure) error {
	details, err := json.Marshal(failure.Details)
	if err != nil {
		return fmt.Errorf("encode stage details: %w", err)
	}
	diagnostics, err := encodeRowErrors(failure.Errors)
	if err != nil {
		return err
	}

	values := progressColumns(failure.Progress)
	values["status"] = string(domain.StatusFailed)
	values["current_stage"] = string(domain.StageFailed)
	values["stage_details"] = details
	values["errors"] = diagnostics
	values["error_message"] = failure.Message
	values["completed_at"] = failure.FailedAt
	return r.update(ctx, jobID, "fail import job", values)
}

// update writes values to a job that has not reached a terminal status.
func (r *ImportJobRepository) update(ctx context.Context, jobID, op string, values map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND status NOT IN ?", jobID, terminalStatuses).
		Updates(values)
	if result.Error != nil {
		return fmt.Errorf("%s: %w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrJobNotFound)
	}
	return nil
}

func progressColumns(progress domain.Progress) map[string]any {
	return map[string]any{
		"total_rows":     progress.TotalRows,
		"processed_rows": progress.ProcessedRows,
		"success_count":  progress.SuccessCount,
		"error_count":    progress.ErrorCount,
	}
}

func encodeRowErrors(rowErrors []domain.RowError) ([]byte, error) {
	if rowErrors == nil {
		rowErrors = []domain.RowError{}
	}
	payload, err := json.Marshal(rowErrors)
	if err != nil {
		return nil, fmt.Errorf("encode row errors: %w", err)
	}
	return payload, nil
}

func toDomainJob(row models.ImportJob) (*domain.ImportJob, error) {
	job := &domain.ImportJob{
		ID:             row.ID,
		OrganizationID: row.OrganizationID,
		UserID:         row.UserID,
		FileName:       row.FileName,
		FilePath:       row.FilePath,
		ImportType:     domain.ImportType(row.ImportType),
		TargetID:       derefText(row.TargetID),
		Status:         domain.Status(row.Status),
		CurrentStage:   domain.Stage(derefText(row.CurrentStage)),
		TotalRows:      row.TotalRows,
		ProcessedRows:  row.ProcessedRows,
		SuccessCount:   row.SuccessCount,
		ErrorCount:     row.ErrorCount,
		ErrorMessage:   derefText(row.ErrorMessage),
		FileDeleted:    row.FileDeleted,
		FileDeletedAt:  row.FileDeletedAt,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		CompletedAt:    row.CompletedAt,
	}

	if len(row.StageDetails) > 0 {
		if err := json.Unmarshal(row.StageDetails, &job.StageDetails); err != nil {
			return nil, fmt.Errorf("decode stage details of job %s: %w", row.ID, err)
		}
	}
	if len(row.Errors) > 0 {
		if err := json.Unmarshal(row.Errors, &job.Errors); err != nil {
			return nil, fmt.Errorf("decode row errors of job %s: %w", row.ID, err)
		}
	}

	return job, nil
}

func derefText(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
