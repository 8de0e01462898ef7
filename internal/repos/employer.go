package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
	"github.com/benetrust/trustadmin-backend/internal/types"
)

type EmployerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, employer *types.Employer) error
	GetByNumber(ctx context.Context, tx *gorm.DB, number string) (*types.Employer, error)
	UpdateByNumber(ctx context.Context, tx *gorm.DB, number string, fields map[string]interface{}) error
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Employer, error)
}

type employerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmployerRepo(db *gorm.DB, baseLog *logger.Logger) EmployerRepo {
	return &employerRepo{db: db, log: baseLog.With("repo", "EmployerRepo")}
}

func (r *employerRepo) Create(ctx context.Context, tx *gorm.DB, employer *types.Employer) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(employer).Error
}

func (r *employerRepo) GetByNumber(ctx context.Context, tx *gorm.DB, number string) (*types.Employer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var employer types.Employer
	err := transaction.WithContext(ctx).
		Where("number = ?", number).
		First(&employer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &employer, nil
}

func (r *employerRepo) UpdateByNumber(ctx context.Context, tx *gorm.DB, number string, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Employer{}).
		Where("number = ?", number).
		Updates(fields).Error
}

func (r *employerRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Employer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Employer
	if err := transaction.WithContext(ctx).
		Order("number ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
