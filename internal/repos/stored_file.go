package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
	"github.com/benetrust/trustadmin-backend/internal/types"
)

type StoredFileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, file *types.StoredFile) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.StoredFile, error)
	GetByWizardID(ctx context.Context, tx *gorm.DB, wizardID uuid.UUID) ([]*types.StoredFile, error)
	FullDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type storedFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStoredFileRepo(db *gorm.DB, baseLog *logger.Logger) StoredFileRepo {
	return &storedFileRepo{db: db, log: baseLog.With("repo", "StoredFileRepo")}
}

func (r *storedFileRepo) Create(ctx context.Context, tx *gorm.DB, file *types.StoredFile) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(file).Error
}

func (r *storedFileRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.StoredFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var file types.StoredFile
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *storedFileRepo) GetByWizardID(ctx context.Context, tx *gorm.DB, wizardID uuid.UUID) ([]*types.StoredFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.StoredFile
	if err := transaction.WithContext(ctx).
		Where("wizard_id = ?", wizardID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *storedFileRepo) FullDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Unscoped().
		Where("id = ?", id).
		Delete(&types.StoredFile{}).Error
}
