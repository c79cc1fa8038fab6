package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"
)

type EnqueueImportInput struct {
	OrganizationID string `validate:"required,uuid"`
	UserID         string `validate:"required,uuid"`
	FileName       string `validate:"required"`
	FilePath       string `validate:"required"`
	ImportType     string `validate:"required"`
	TargetID       string `validate:"omitempty,uuid"`
}

type EnqueueImportOutput struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type EnqueueImport interface {
	Execute(ctx context.Context, in EnqueueImportInput) (EnqueueImportOutput, error)
}

type importJobEnqueuer interface {
	Enqueue(ctx context.Context, job domain.NewImportJob) (string, error)
}

type enqueueImport struct {
	repo importJobEnqueuer
}

func NewEnqueueImport(repo importJobEnqueuer) EnqueueImport {
	return &enqueueImport{repo: repo}
}

func (uc *enqueueImport) Execute(ctx context.Context, in EnqueueImportInput) (EnqueueImportOutput, error) {
	in.FileName = strings.TrimSpace(in.FileName)
	in.FilePath = strings.TrimSpace(in.FilePath)
	in.TargetID = strings.TrimSpace(in.TargetID)

	if err := validate.Struct(in); err != nil {
		return EnqueueImportOutput{}, fmt.Errorf("%w: %v", ErrInvalidImportInput, err)
	}
	if strings.ToLower(filepath.Ext(in.FileName)) != ".csv" {
		return EnqueueImportOutput{}, fmt.Errorf("%w: file must be a .csv", ErrInvalidImportInput)
	}

	importType, err := domain.ParseImportType(in.ImportType)
	if err != nil {
		return EnqueueImportOutput{}, fmt.Errorf("%w: %v", ErrInvalidImportInput, err)
	}
	if importType.RequiresTarget() && in.TargetID == "" {
		return EnqueueImportOutput{}, fmt.Errorf("%w: %v", ErrInvalidImportInput, ErrMissingTargetID)
	}

	jobID, err := uc.repo.Enqueue(ctx, domain.NewImportJob{
		OrganizationID: in.OrganizationID,
		UserID:         in.UserID,
		FileName:       in.FileName,
		FilePath:       in.FilePath,
		ImportType:     importType,
		TargetID:       in.TargetID,
	})
	if err != nil {
		return EnqueueImportOutput{}, fmt.Errorf("%w: %v", ErrEnqueueImportJob, err)
	}

	return EnqueueImportOutput{
		JobID:  jobID,
		Status: string(domain.StatusPending),
	}, nil
}
