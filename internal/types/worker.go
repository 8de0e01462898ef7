package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Worker struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SSN            string         `gorm:"column:ssn;not null;uniqueIndex" json:"ssn"`
	FirstName      string         `gorm:"column:first_name;not null" json:"first_name"`
	LastName       string         `gorm:"column:last_name;not null" json:"last_name"`
	BirthDate      string         `gorm:"column:birth_date" json:"birth_date,omitempty"`
	EmployerNumber string         `gorm:"column:employer_number;index" json:"employer_number,omitempty"`
	Address        string         `gorm:"column:address" json:"address,omitempty"`
	City           string         `gorm:"column:city" json:"city,omitempty"`
	State          string         `gorm:"column:state" json:"state,omitempty"`
	Zip            string         `gorm:"column:zip" json:"zip,omitempty"`
	Phone          string         `gorm:"column:phone" json:"phone,omitempty"`
	Email          string         `gorm:"column:email" json:"email,omitempty"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Worker) TableName() string { return "worker" }
