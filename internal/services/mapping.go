package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
	"github.com/benetrust/trustadmin-backend/internal/repos"
	"github.com/benetrust/trustadmin-backend/internal/types"
	"github.com/benetrust/trustadmin-backend/internal/wizard"
)

// MappingSuggestion is what the map step offers the user before they commit
// a mapping: a remembered one when the header fingerprint is known, else an
// inferred one from header text.
type MappingSuggestion struct {
	Mapping      map[int]string `json:"mapping"`
	FromSaved    bool           `json:"from_saved"`
	FirstRowHash string         `json:"first_row_hash"`
}

type MappingService interface {
	Suggest(ctx context.Context, userID uuid.UUID, t *wizard.Type, headerRow []string) (*MappingSuggestion, error)
	Save(ctx context.Context, userID uuid.UUID, typeName string, headerRow []string, mapping map[int]string) error
}

type mappingService struct {
	db          *gorm.DB
	log         *logger.Logger
	mappingRepo repos.FeedMappingRepo
}

func NewMappingService(db *gorm.DB, baseLog *logger.Logger, mappingRepo repos.FeedMappingRepo) MappingService {
	return &mappingService{
		db:          db,
		log:         baseLog.With("service", "MappingService"),
		mappingRepo: mappingRepo,
	}
}

func (s *mappingService) Suggest(ctx context.Context, userID uuid.UUID, t *wizard.Type, headerRow []string) (*MappingSuggestion, error) {
	hash := wizard.HashHeaderRow(headerRow)
	saved, err := s.mappingRepo.GetByKey(ctx, nil, userID, t.Name, hash)
	if err != nil {
		return nil, err
	}
	if saved != nil {
		var mapping map[int]string
		if err := json.Unmarshal(saved.Mapping, &mapping); err != nil {
			return nil, fmt.Errorf("stored mapping for hash %s is corrupt: %w", hash, err)
		}
		return &MappingSuggestion{Mapping: mapping, FromSaved: true, FirstRowHash: hash}, nil
	}
	return &MappingSuggestion{
		Mapping:      wizard.InferMapping(t, headerRow),
		FirstRowHash: hash,
	}, nil
}

func (s *mappingService) Save(ctx context.Context, userID uuid.UUID, typeName string, headerRow []string, mapping map[int]string) error {
	if err := wizard.ValidateMapping(mapping); err != nil {
		return err
	}
	raw, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	fm := &types.FeedMapping{
		ID:             uuid.New(),
		UserID:         userID,
		WizardTypeName: typeName,
		FirstRowHash:   wizard.HashHeaderRow(headerRow),
		Mapping:        raw,
	}
	if err := s.mappingRepo.Upsert(ctx, nil, fm); err != nil {
		s.log.Error("Failed to upsert feed mapping", "error", err, "user_id", userID, "type", typeName)
		return err
	}
	return nil
}
