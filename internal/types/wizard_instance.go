package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WizardInstance struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Type        string         `gorm:"column:type;not null;index" json:"type"`
	EntityID    *uuid.UUID     `gorm:"type:uuid;index" json:"entity_id,omitempty"`
	CreatedBy   uuid.UUID      `gorm:"type:uuid;not null;index" json:"created_by"`
	Status      string         `gorm:"column:status;not null" json:"status"`
	CurrentStep string         `gorm:"column:current_step;not null" json:"current_step"`
	Data        datatypes.JSON `gorm:"type:jsonb" json:"data"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (WizardInstance) TableName() string { return "wizard_instance" }
