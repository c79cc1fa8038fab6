package importjob

import (
	"strings"
	"time"
)

const (
	// MaxRepositoryRows caps the data rows of a repository import.
	MaxRepositoryRows = 5000
	// MaxStoredErrors caps the diagnostics kept on a job.
	MaxStoredErrors = 100
	// DefaultBatchSize is the number of records written per batch.
	DefaultBatchSize = 500
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Stage string

const (
	StageDownloading Stage = "downloading"
	StageValidating  Stage = "validating"
	StageParsing     Stage = "parsing"
	StageInserting   Stage = "inserting"
	StageFinalizing  Stage = "finalizing"
	StageCompleted   Stage = "completed"
	StageFailed      Stage = "failed"
)

var stageOrder = map[Stage]int{
	StageDownloading: 1,
	StageValidating:  2,
	StageParsing:     3,
	StageInserting:   4,
	StageFinalizing:  5,
	StageCompleted:   6,
	StageFailed:      6,
}

// CanAdvance reports whether a job in stage s may move to next. The empty
// stage precedes every stage, and failed is reachable from any non-terminal stage.
func (s Stage) CanAdvance(next Stage) bool {
	if s == StageCompleted || s == StageFailed {
		return false
	}
	if next == StageFailed {
		return true
	}
	return stageOrder[next] >= stageOrder[s]
}

type ImportType string

const (
	TypeContacts           ImportType = "contacts"
	TypeRepository         ImportType = "repository"
	TypeInventory          ImportType = "inventory"
	TypeEmailRecipients    ImportType = "email_recipients"
	TypeWhatsAppRecipients ImportType = "whatsapp_recipients"
)

func ParseImportType(raw string) (ImportType, error) {
	switch t := ImportType(strings.ToLower(strings.TrimSpace(raw))); t {
	case TypeContacts, TypeRepository, TypeInventory, TypeEmailRecipients, TypeWhatsAppRecipients:
		return t, nil
	default:
		return "", ErrInvalidImportType
	}
}

// RequiresTarget reports whether records of this type belong to a campaign.
func (t ImportType) RequiresTarget() bool {
	return t == TypeEmailRecipients || t == TypeWhatsAppRecipients
}

type ImportJob struct {
	ID             string
	OrganizationID string
	UserID         string
	FileName       string
	FilePath       string
	ImportType     ImportType
	TargetID       string
	Status         Status
	CurrentStage   Stage
	StageDetails   StageDetails
	TotalRows      int
	ProcessedRows  int
	SuccessCount   int
	ErrorCount     int
	Errors         []RowError
	ErrorMessage   string
	FileDeleted    bool
	FileDeletedAt  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

type RowError struct {
	Row     int    `json:"row"`
	Error   string `json:"error"`
	RawLine string `json:"raw_line,omitempty"`
}

// StageDetails is the free-form payload shown to observers next to the stage.
type StageDetails struct {
	Message        string     `json:"message"`
	TotalRows      int        `json:"total_rows,omitempty"`
	ProcessedRows  int        `json:"processed_rows,omitempty"`
	SuccessCount   int        `json:"success_count,omitempty"`
	ErrorCount     int        `json:"error_count,omitempty"`
	SkippedCount   int        `json:"skipped_count,omitempty"`
	BatchesWritten int        `json:"batches_written,omitempty"`
	MissingColumns []string   `json:"missing_columns,omitempty"`
	DurationMillis int64      `json:"duration_ms,omitempty"`
	Error          string     `json:"error,omitempty"`
	FailedStage    Stage      `json:"failed_stage,omitempty"`
	FailedAt       *time.Time `json:"failed_at,omitempty"`
	Stack          string     `json:"stack,omitempty"`
}

type Progress struct {
	TotalRows     int
	ProcessedRows int
	SuccessCount  int
	ErrorCount    int
}

type Summary struct {
	Progress
	Errors      []RowError
	Details     StageDetails
	CompletedAt time.Time
}

type Failure struct {
	Message  string
	Details  StageDetails
	Progress Progress
	Errors   []RowError
	FailedAt time.Time
}

type NewImportJob struct {
	OrganizationID string
	UserID         string
	FileName       string
	FilePath       string
	ImportType     ImportType
	TargetID       string
}
