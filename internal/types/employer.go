package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Employer struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Number    string         `gorm:"column:number;not null;uniqueIndex" json:"number"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	EIN       string         `gorm:"column:ein" json:"ein,omitempty"`
	Address   string         `gorm:"column:address" json:"address,omitempty"`
	City      string         `gorm:"column:city" json:"city,omitempty"`
	State     string         `gorm:"column:state" json:"state,omitempty"`
	Zip       string         `gorm:"column:zip" json:"zip,omitempty"`
	Phone     string         `gorm:"column:phone" json:"phone,omitempty"`
	Email     string         `gorm:"column:email" json:"email,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Employer) TableName() string { return "employer" }
