package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FeedMapping remembers the column mapping a user chose for a given file
// template, keyed by the fingerprint of the file's header row.
type FeedMapping struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_feed_mapping,unique,priority:1" json:"user_id"`
	WizardTypeName string         `gorm:"column:wizard_type_name;not null;index:idx_feed_mapping,unique,priority:2" json:"wizard_type_name"`
	FirstRowHash   string         `gorm:"column:first_row_hash;not null;index:idx_feed_mapping,unique,priority:3" json:"first_row_hash"`
	Mapping        datatypes.JSON `gorm:"type:jsonb;not null" json:"mapping"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (FeedMapping) TableName() string { return "feed_mapping" }
