package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
	"github.com/benetrust/trustadmin-backend/internal/types"
)

type MonthlyLinkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, link *types.MonthlyRecurrenceLink) error
	ExistsForPeriod(ctx context.Context, tx *gorm.DB, employerID uuid.UUID, year, month int, group, kind string) (bool, error)
	CompletedMonthlyExists(ctx context.Context, tx *gorm.DB, employerID uuid.UUID, year, month int, group string) (bool, error)
	DeleteByWizardID(ctx context.Context, tx *gorm.DB, wizardID uuid.UUID) error
}

type monthlyLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMonthlyLinkRepo(db *gorm.DB, baseLog *logger.Logger) MonthlyLinkRepo {
	return &monthlyLinkRepo{db: db, log: baseLog.With("repo", "MonthlyLinkRepo")}
}

func (r *monthlyLinkRepo) Create(ctx context.Context, tx *gorm.DB, link *types.MonthlyRecurrenceLink) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(link).Error
}

func (r *monthlyLinkRepo) ExistsForPeriod(ctx context.Context, tx *gorm.DB, employerID uuid.UUID, year, month int, group, kind string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.MonthlyRecurrenceLink{}).
		Where("employer_id = ? AND year = ? AND month = ? AND group_name = ? AND kind = ?",
			employerID, year, month, group, kind).
		Count(&count).Error
	return count > 0, err
}

// CompletedMonthlyExists reports whether a completed monthly-kind instance
// already owns the period, which is the prerequisite for corrections.
func (r *monthlyLinkRepo) CompletedMonthlyExists(ctx context.Context, tx *gorm.DB, employerID uuid.UUID, year, month int, group string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.MonthlyRecurrenceLink{}).
		Joins("JOIN wizard_instance ON wizard_instance.id = monthly_recurrence_link.wizard_id").
		Where("monthly_recurrence_link.employer_id = ? AND monthly_recurrence_link.year = ? AND monthly_recurrence_link.month = ?",
			employerID, year, month).
		Where("monthly_recurrence_link.group_name = ? AND monthly_recurrence_link.kind = ?", group, "monthly").
		Where("wizard_instance.status = ?", "completed").
		Where("wizard_instance.deleted_at IS NULL").
		Count(&count).Error
	return count > 0, err
}

func (r *monthlyLinkRepo) DeleteByWizardID(ctx context.Context, tx *gorm.DB, wizardID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("wizard_id = ?", wizardID).
		Delete(&types.MonthlyRecurrenceLink{}).Error
}
