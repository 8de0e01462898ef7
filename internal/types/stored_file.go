package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StoredFile struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	WizardID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"wizard_id"`
	OwnerID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	OriginalName string         `gorm:"column:original_name;not null" json:"original_name"`
	Mime         string         `gorm:"column:mime;not null" json:"mime"`
	StorageKey   string         `gorm:"column:storage_key;not null" json:"storage_key"`
	SizeBytes    int64          `gorm:"column:size_bytes;not null;default:0" json:"size_bytes"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (StoredFile) TableName() string { return "stored_file" }
