package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/benetrust/trustadmin-backend/internal/platform/apierr"
	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
	"github.com/benetrust/trustadmin-backend/internal/platform/policy"
	"github.com/benetrust/trustadmin-backend/internal/repos"
	"github.com/benetrust/trustadmin-backend/internal/requestdata"
	"github.com/benetrust/trustadmin-backend/internal/types"
	"github.com/benetrust/trustadmin-backend/internal/wizard"
)

type CreateInstanceRequest struct {
	Type            string
	EntityID        *uuid.UUID
	LaunchArguments map[string]any
}

type WizardService interface {
	CreateInstance(ctx context.Context, principal requestdata.Principal, req CreateInstanceRequest) (*types.WizardInstance, error)
	GetInstance(ctx context.Context, principal requestdata.Principal, id uuid.UUID) (*types.WizardInstance, error)
	ListInstances(ctx context.Context, principal requestdata.Principal, filter repos.WizardInstanceFilter) ([]*types.WizardInstance, error)
	UpdateInstanceData(ctx context.Context, principal requestdata.Principal, id uuid.UUID, patch wizard.DataPatch) (*types.WizardInstance, error)
	DeleteInstance(ctx context.Context, principal requestdata.Principal, id uuid.UUID) error
	Advance(ctx context.Context, principal requestdata.Principal, id uuid.UUID, payload map[string]any) (*types.WizardInstance, error)
	Retreat(ctx context.Context, principal requestdata.Principal, id uuid.UUID) (*types.WizardInstance, error)
}

type wizardService struct {
	db       *gorm.DB
	log      *logger.Logger
	registry *wizard.Registry
	policy   policy.Evaluator
	instRepo repos.WizardInstanceRepo
	linkRepo repos.MonthlyLinkRepo
	fileRepo repos.StoredFileRepo
	parser   ParserService
}

func NewWizardService(
	db *gorm.DB,
	baseLog *logger.Logger,
	registry *wizard.Registry,
	policyEval policy.Evaluator,
	instRepo repos.WizardInstanceRepo,
	linkRepo repos.MonthlyLinkRepo,
	fileRepo repos.StoredFileRepo,
	parser ParserService,
) WizardService {
	return &wizardService{
		db:       db,
		log:      baseLog.With("service", "WizardService"),
		registry: registry,
		policy:   policyEval,
		instRepo: instRepo,
		linkRepo: linkRepo,
		fileRepo: fileRepo,
		parser:   parser,
	}
}

// decodeInstanceData and encodeInstanceData round-trip the jsonb payload.
func decodeInstanceData(inst *types.WizardInstance) (*wizard.InstanceData, error) {
	var data wizard.InstanceData
	if len(inst.Data) > 0 {
		if err := json.Unmarshal(inst.Data, &data); err != nil {
			return nil, fmt.Errorf("instance %s has corrupt data payload: %w", inst.ID, err)
		}
	}
	if data.Progress == nil {
		data.Progress = make(map[string]*wizard.StepProgress)
	}
	return &data, nil
}

func encodeInstanceData(inst *types.WizardInstance, data *wizard.InstanceData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	inst.Data = raw
	return nil
}

func authorizeInstance(ctx context.Context, eval policy.Evaluator, principal requestdata.Principal, inst *types.WizardInstance) error {
	decision := eval.Evaluate(ctx, policy.WizardAccess, policy.Context{
		UserID:  principal.UserID,
		IsAdmin: principal.IsAdmin,
		OwnerID: inst.CreatedBy,
	})
	if !decision.Granted {
		return apierr.Forbidden(fmt.Errorf("not permitted to access wizard %s", inst.ID))
	}
	return nil
}

func loadAuthorizedInstance(ctx context.Context, instRepo repos.WizardInstanceRepo, eval policy.Evaluator, principal requestdata.Principal, id uuid.UUID) (*types.WizardInstance, error) {
	inst, err := instRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(apierr.CodeNotFound, fmt.Errorf("wizard %s not found", id))
		}
		return nil, err
	}
	if err := authorizeInstance(ctx, eval, principal, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *wizardService) loadAuthorized(ctx context.Context, principal requestdata.Principal, id uuid.UUID) (*types.WizardInstance, error) {
	return loadAuthorizedInstance(ctx, s.instRepo, s.policy, principal, id)
}

func (s *wizardService) CreateInstance(ctx context.Context, principal requestdata.Principal, req CreateInstanceRequest) (*types.WizardInstance, error) {
	t, err := s.registry.Get(req.Type)
	if err != nil {
		return nil, err
	}
	if err := wizard.ValidateLaunchArguments(t, req.LaunchArguments); err != nil {
		return nil, err
	}

	inst := &types.WizardInstance{
		ID:          uuid.New(),
		Type:        t.Name,
		EntityID:    req.EntityID,
		CreatedBy:   principal.UserID,
		Status:      wizard.StatusInProgress,
		CurrentStep: t.FirstStep().ID,
	}
	data := wizard.NewInstanceData(t, req.LaunchArguments)
	if t.IsFeed() {
		data.Mode = wizard.ModeCreate
	}
	if err := encodeInstanceData(inst, data); err != nil {
		return nil, err
	}

	if !t.IsMonthly() {
		if err := s.instRepo.Create(ctx, nil, inst); err != nil {
			return nil, err
		}
		s.log.Info("Created wizard instance", "wizard_id", inst.ID, "type", t.Name, "created_by", principal.UserID)
		return inst, nil
	}
	return s.createMonthly(ctx, t, inst, req)
}

// createMonthly runs the recurrence guard. The period precondition is
// checked twice: once outside the transaction for fast feedback, then again
// inside the same transaction as the inserts so two concurrent creators
// cannot both pass. The unique index on the link table backstops even that.
func (s *wizardService) createMonthly(ctx context.Context, t *wizard.Type, inst *types.WizardInstance, req CreateInstanceRequest) (*types.WizardInstance, error) {
	if req.EntityID == nil {
		return nil, apierr.BadRequest(apierr.CodeMissingArgument,
			fmt.Errorf("monthly wizard %q requires an employer entity", t.Name))
	}
	year, month, err := wizard.Period(req.LaunchArguments)
	if err != nil {
		return nil, err
	}
	employerID := *req.EntityID

	if err := s.checkPeriod(ctx, nil, t, employerID, year, month); err != nil {
		return nil, err
	}

	link := &types.MonthlyRecurrenceLink{
		ID:         uuid.New(),
		WizardID:   inst.ID,
		EmployerID: employerID,
		Year:       year,
		Month:      month,
		GroupName:  t.Monthly.Group,
		Kind:       string(t.Monthly.Kind),
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkPeriod(ctx, tx, t, employerID, year, month); err != nil {
			return err
		}
		if err := s.instRepo.Create(ctx, tx, inst); err != nil {
			return err
		}
		if err := s.linkRepo.Create(ctx, tx, link); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierr.Conflict(apierr.CodeDuplicatePeriod,
					fmt.Errorf("a %s wizard already exists for %d-%02d", t.Monthly.Kind, year, month))
			}
			return err
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	s.log.Info("Created monthly wizard instance",
		"wizard_id", inst.ID, "type", t.Name, "year", year, "month", month)
	return inst, nil
}

func (s *wizardService) checkPeriod(ctx context.Context, tx *gorm.DB, t *wizard.Type, employerID uuid.UUID, year, month int) error {
	switch t.Monthly.Kind {
	case wizard.MonthlyKindMonthly:
		exists, err := s.linkRepo.ExistsForPeriod(ctx, tx, employerID, year, month, t.Monthly.Group, string(wizard.MonthlyKindMonthly))
		if err != nil {
			return err
		}
		if exists {
			return apierr.Conflict(apierr.CodeDuplicatePeriod,
				fmt.Errorf("a monthly wizard already exists for %d-%02d", year, month))
		}
	case wizard.MonthlyKindCorrections:
		completed, err := s.linkRepo.CompletedMonthlyExists(ctx, tx, employerID, year, month, t.Monthly.Group)
		if err != nil {
			return err
		}
		if !completed {
			return apierr.Conflict(apierr.CodeMissingPrerequisite,
				fmt.Errorf("no completed monthly wizard exists for %d-%02d", year, month))
		}
		exists, err := s.linkRepo.ExistsForPeriod(ctx, tx, employerID, year, month, t.Monthly.Group, string(wizard.MonthlyKindCorrections))
		if err != nil {
			return err
		}
		if exists {
			return apierr.Conflict(apierr.CodeDuplicatePeriod,
				fmt.Errorf("a corrections wizard already exists for %d-%02d", year, month))
		}
	}
	return nil
}

func (s *wizardService) GetInstance(ctx context.Context, principal requestdata.Principal, id uuid.UUID) (*types.WizardInstance, error) {
	return s.loadAuthorized(ctx, principal, id)
}

func (s *wizardService) ListInstances(ctx context.Context, principal requestdata.Principal, filter repos.WizardInstanceFilter) ([]*types.WizardInstance, error) {
	if !principal.IsAdmin {
		filter.CreatedBy = &principal.UserID
	}
	return s.instRepo.List(ctx, nil, filter)
}

func (s *wizardService) UpdateInstanceData(ctx context.Context, principal requestdata.Principal, id uuid.UUID, patch wizard.DataPatch) (*types.WizardInstance, error) {
	inst, err := s.loadAuthorized(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	t, err := s.registry.Get(inst.Type)
	if err != nil {
		return nil, err
	}
	data, err := decodeInstanceData(inst)
	if err != nil {
		return nil, err
	}
	if err := wizard.NewMachine(t).ApplyPatch(data, patch); err != nil {
		return nil, err
	}
	if err := encodeInstanceData(inst, data); err != nil {
		return nil, err
	}
	if err := s.instRepo.Update(ctx, nil, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// DeleteInstance removes the instance row (with any recurrence link) and
// then clears owned files best-effort: a file-store failure is logged, not
// surfaced, and never resurrects the row.
func (s *wizardService) DeleteInstance(ctx context.Context, principal requestdata.Principal, id uuid.UUID) error {
	inst, err := s.loadAuthorized(ctx, principal, id)
	if err != nil {
		return err
	}
	files, err := s.fileRepo.GetByWizardID(ctx, nil, inst.ID)
	if err != nil {
		return err
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.linkRepo.DeleteByWizardID(ctx, tx, inst.ID); err != nil {
			return err
		}
		return s.instRepo.DeleteByID(ctx, tx, inst.ID)
	})
	if txErr != nil {
		return txErr
	}

	for _, f := range files {
		if err := s.parser.Delete(ctx, nil, f.ID); err != nil {
			s.log.Warn("Failed to delete wizard file during cascade", "error", err, "file_id", f.ID, "wizard_id", inst.ID)
		}
	}
	s.log.Info("Deleted wizard instance", "wizard_id", inst.ID, "files", len(files))
	return nil
}

func (s *wizardService) Advance(ctx context.Context, principal requestdata.Principal, id uuid.UUID, payload map[string]any) (*types.WizardInstance, error) {
	inst, err := s.loadAuthorized(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	t, err := s.registry.Get(inst.Type)
	if err != nil {
		return nil, err
	}
	data, err := decodeInstanceData(inst)
	if err != nil {
		return nil, err
	}

	fileExists := func(fileID uuid.UUID) bool { return s.parser.FileExists(ctx, fileID) }
	next, err := wizard.NewMachine(t).Advance(data, inst.CurrentStep, payload, fileExists)
	if err != nil {
		return nil, err
	}
	inst.CurrentStep = next
	if err := encodeInstanceData(inst, data); err != nil {
		return nil, err
	}
	if err := s.instRepo.Update(ctx, nil, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *wizardService) Retreat(ctx context.Context, principal requestdata.Principal, id uuid.UUID) (*types.WizardInstance, error) {
	inst, err := s.loadAuthorized(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	t, err := s.registry.Get(inst.Type)
	if err != nil {
		return nil, err
	}
	data, err := decodeInstanceData(inst)
	if err != nil {
		return nil, err
	}

	prev, err := wizard.NewMachine(t).Retreat(data, inst.CurrentStep)
	if err != nil {
		return nil, err
	}
	inst.CurrentStep = prev
	if err := encodeInstanceData(inst, data); err != nil {
		return nil, err
	}
	if err := s.instRepo.Update(ctx, nil, inst); err != nil {
		return nil, err
	}
	return inst, nil
}
