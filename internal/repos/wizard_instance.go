package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
	"github.com/benetrust/trustadmin-backend/internal/types"
)

type WizardInstanceFilter struct {
	Type      string
	EntityID  *uuid.UUID
	CreatedBy *uuid.UUID
}

type WizardInstanceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, inst *types.WizardInstance) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WizardInstance, error)
	List(ctx context.Context, tx *gorm.DB, filter WizardInstanceFilter) ([]*types.WizardInstance, error)
	Update(ctx context.Context, tx *gorm.DB, inst *types.WizardInstance) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type wizardInstanceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWizardInstanceRepo(db *gorm.DB, baseLog *logger.Logger) WizardInstanceRepo {
	return &wizardInstanceRepo{db: db, log: baseLog.With("repo", "WizardInstanceRepo")}
}

func (r *wizardInstanceRepo) Create(ctx context.Context, tx *gorm.DB, inst *types.WizardInstance) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(inst).Error
}

func (r *wizardInstanceRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WizardInstance, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var inst types.WizardInstance
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&inst).Error; err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *wizardInstanceRepo) List(ctx context.Context, tx *gorm.DB, filter WizardInstanceFilter) ([]*types.WizardInstance, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.WizardInstance{})
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.EntityID != nil {
		q = q.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.CreatedBy != nil {
		q = q.Where("created_by = ?", *filter.CreatedBy)
	}

	var results []*types.WizardInstance
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *wizardInstanceRepo) Update(ctx context.Context, tx *gorm.DB, inst *types.WizardInstance) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(inst).Error
}

func (r *wizardInstanceRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.WizardInstance{}).Error
}
