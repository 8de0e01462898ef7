package types

import (
	"time"

	"github.com/google/uuid"
)

// MonthlyRecurrenceLink pins a wizard instance to an employer period. The
// composite unique index is the authoritative at-most-one-per-period
// guarantee; the guard's transactional recheck rides on top of it.
type MonthlyRecurrenceLink struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WizardID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"wizard_id"`
	EmployerID uuid.UUID `gorm:"type:uuid;not null;index:idx_monthly_link_period,unique,priority:1" json:"employer_id"`
	Year       int       `gorm:"column:year;not null;index:idx_monthly_link_period,unique,priority:2" json:"year"`
	Month      int       `gorm:"column:month;not null;index:idx_monthly_link_period,unique,priority:3" json:"month"`
	GroupName  string    `gorm:"column:group_name;not null;index:idx_monthly_link_period,unique,priority:4" json:"group_name"`
	Kind       string    `gorm:"column:kind;not null;index:idx_monthly_link_period,unique,priority:5" json:"kind"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (MonthlyRecurrenceLink) TableName() string { return "monthly_recurrence_link" }
