package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
	"github.com/benetrust/trustadmin-backend/internal/types"
)

type FeedMappingRepo interface {
	GetByKey(ctx context.Context, tx *gorm.DB, userID uuid.UUID, typeName, firstRowHash string) (*types.FeedMapping, error)
	Upsert(ctx context.Context, tx *gorm.DB, mapping *types.FeedMapping) error
}

type feedMappingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedMappingRepo(db *gorm.DB, baseLog *logger.Logger) FeedMappingRepo {
	return &feedMappingRepo{db: db, log: baseLog.With("repo", "FeedMappingRepo")}
}

func (r *feedMappingRepo) GetByKey(ctx context.Context, tx *gorm.DB, userID uuid.UUID, typeName, firstRowHash string) (*types.FeedMapping, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var fm types.FeedMapping
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND wizard_type_name = ? AND first_row_hash = ?", userID, typeName, firstRowHash).
		First(&fm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fm, nil
}

func (r *feedMappingRepo) Upsert(ctx context.Context, tx *gorm.DB, mapping *types.FeedMapping) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	mapping.UpdatedAt = time.Now().UTC()
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "wizard_type_name"},
				{Name: "first_row_hash"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"mapping", "updated_at"}),
		}).
		Create(mapping).Error
}
