package models

import "time"

type ImportJob struct {
	ID             string  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID string  `gorm:"type:uuid;not null;index"`
	UserID         string  `gorm:"type:uuid;not null"`
	FileName       string  `gorm:"type:text;not null"`
	FilePath       string  `gorm:"type:text;not null"`
	ImportType     string  `gorm:"type:text;not null"`
	TargetID       *string `gorm:"type:uuid"`
	Status         string  `gorm:"type:text;not null;default:pending;index"`
	CurrentStage   *string `gorm:"type:text"`
	StageDetails   []byte  `gorm:"type:jsonb;not null;default:'{}'"`
	TotalRows      int     `gorm:"not null;default:0"`
	ProcessedRows  int     `gorm:"not null;default:0"`
	SuccessCount   int     `gorm:"not null;default:0"`
	ErrorCount     int     `gorm:"not null;default:0"`
	Errors         []byte  `gorm:"type:jsonb;not null;default:'[]'"`
	ErrorMessage   *string `gorm:"type:text"`
	FileDeleted    bool    `gorm:"not null;default:false"`
	FileDeletedAt  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

func (ImportJob) TableName() string {
	return "import_jobs"
}
