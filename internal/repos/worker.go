package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
	"github.com/benetrust/trustadmin-backend/internal/types"
)

type WorkerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, worker *types.Worker) error
	GetBySSN(ctx context.Context, tx *gorm.DB, ssn string) (*types.Worker, error)
	UpdateBySSN(ctx context.Context, tx *gorm.DB, ssn string, fields map[string]interface{}) error
}

type workerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkerRepo(db *gorm.DB, baseLog *logger.Logger) WorkerRepo {
	return &workerRepo{db: db, log: baseLog.With("repo", "WorkerRepo")}
}

func (r *workerRepo) Create(ctx context.Context, tx *gorm.DB, worker *types.Worker) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(worker).Error
}

func (r *workerRepo) GetBySSN(ctx context.Context, tx *gorm.DB, ssn string) (*types.Worker, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var worker types.Worker
	err := transaction.WithContext(ctx).
		Where("ssn = ?", ssn).
		First(&worker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *workerRepo) UpdateBySSN(ctx context.Context, tx *gorm.DB, ssn string, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Worker{}).
		Where("ssn = ?", ssn).
		Updates(fields).Error
}
