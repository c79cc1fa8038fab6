package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"
)

type GetImportJobInput struct {
	ID string
}

type ImportJobOutput struct {
	ID             string              `json:"id"`
	OrganizationID string              `json:"organization_id"`
	UserID         string              `json:"user_id"`
	FileName       string              `json:"file_name"`
	ImportType     string              `json:"import_type"`
	TargetID       string              `json:"target_id,omitempty"`
	Status         string              `json:"status"`
	CurrentStage   string              `json:"current_stage,omitempty"`
	StageDetails   domain.StageDetails `json:"stage_details"`
	TotalRows      int                 `json:"total_rows"`
	ProcessedRows  int                 `json:"processed_rows"`
	SuccessCount   int                 `json:"success_count"`
	ErrorCount     int                 `json:"error_count"`
	Errors         []domain.RowError   `json:"errors"`
	ErrorMessage   string              `json:"error_message,omitempty"`
	FileDeleted    bool                `json:"file_deleted"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
}

type GetImportJob interface {
	Execute(ctx context.Context, in GetImportJobInput) (ImportJobOutput, error)
}

type importJobGetter interface {
	Get(ctx context.Context, jobID string) (*domain.ImportJob, error)
}

type getImportJob struct {
	repo importJobGetter
}

func NewGetImportJob(repo importJobGetter) GetImportJob {
	return &getImportJob{repo: repo}
}

func (uc *getImportJob) Execute(ctx context.Context, in GetImportJobInput) (ImportJobOutput, error) {
	if _, err := uuid.Parse(in.ID); err != nil {
		return ImportJobOutput{}, ErrInvalidImportJob
	}

	job, err := uc.repo.Get(ctx, in.ID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return ImportJobOutput{}, ErrImportJobNotFound
		}
		return ImportJobOutput{}, fmt.Errorf("%w: %v", ErrGetImportJob, err)
	}

	errs := job.Errors
	if errs == nil {
		errs = []domain.RowError{}
	}

	return ImportJobOutput{
		ID:             job.ID,
		OrganizationID: job.OrganizationID,
		UserID:         job.UserID,
		FileName:       job.FileName,
		ImportType:     string(job.ImportType),
		TargetID:       job.TargetID,
		Status:         string(job.Status),
		CurrentStage:   string(job.CurrentStage),
		StageDetails:   job.StageDetails,
		TotalRows:      job.TotalRows,
		ProcessedRows:  job.ProcessedRows,
		SuccessCount:   job.SuccessCount,
		ErrorCount:     job.ErrorCount,
		Errors:         errs,
		ErrorMessage:   job.ErrorMessage,
		FileDeleted:    job.FileDeleted,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
		CompletedAt:    job.CompletedAt,
	}, nil
}
