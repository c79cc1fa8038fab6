package models

import "time"

type Organization struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"size:255;not null"`
	Slug      string `gorm:"size:120;not null;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Organization) TableName() string {
	return "organizations"
}
