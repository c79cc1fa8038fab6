package importjob

import (
	"context"
	"time"
)

type JobRepository interface {
	Enqueue(ctx context.Context, job NewImportJob) (string, error)
	Get(ctx context.Context, jobID string) (*ImportJob, error)
	ClaimNext(ctx context.Context) (*ImportJob, error)
	MarkProcessing(ctx context.Context, jobID string) error
	UpdateStage(ctx context.Context, jobID string, stage Stage, details StageDetails) error
	UpdateProgress(ctx context.Context, jobID string, stage Stage, progress Progress, details StageDetails) error
	MarkFileDeleted(ctx context.Context, jobID string, at time.Time) error
	Complete(ctx context.Context, jobID string, summary Summary) error
	Fail(ctx context.Context, jobID string, failure Failure) error
}

type ObjectStore interface {
	Download(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

type OrganizationDirectory interface {
	Slug(ctx context.Context, organizationID string) (string, error)
}

// ExistingKeys holds lower-cased natural keys already persisted for a tenant.
type ExistingKeys struct {
	Emails              map[string]struct{}
	InstitutionalEmails map[string]struct{}
}

// WriteResult counts rows written by a single store call.
type WriteResult struct {
	Inserted int
	Updated  int
}

type RecordStore interface {
	UpsertContacts(ctx context.Context, organizationID string, contacts []Contact) (WriteResult, error)
	UpsertEmailRecipients(ctx context.Context, campaignID string, recipients []EmailRecipient) (WriteResult, error)
	UpsertWhatsAppRecipients(ctx context.Context, campaignID string, recipients []WhatsAppRecipient) (WriteResult, error)
	UpsertInventoryItems(ctx context.Context, organizationID, jobID string, items []InventoryItem) (WriteResult, error)
	ExistingRepositoryKeys(ctx context.Context, organizationID string, emails, institutionalEmails []string) (ExistingKeys, error)
	InsertRepositoryRecords(ctx context.Context, organizationID string, records []RepositoryRecord) (WriteResult, error)
}
