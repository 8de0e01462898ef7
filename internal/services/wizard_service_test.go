package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/benetrust/trustadmin-backend/internal/platform/apierr"
	"github.com/benetrust/trustadmin-backend/internal/repos"
	"github.com/benetrust/trustadmin-backend/internal/wizard"
)

func TestCreateInstance_FeedDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	principal := testPrincipal()

	inst, err := env.wizards.CreateInstance(ctx, principal, CreateInstanceRequest{Type: "employer_feed"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.Status != wizard.StatusInProgress || inst.CurrentStep != wizard.StepUpload {
		t.Fatalf("unexpected fresh instance: status=%q step=%q", inst.Status, inst.CurrentStep)
	}
	if inst.CreatedBy != principal.UserID {
		t.Fatalf("created_by not set")
	}

	loaded, err := env.wizards.GetInstance(ctx, principal, inst.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := decodeInstanceData(loaded)
	if err != nil {
		t.Fatalf("decoding data: %v", err)
	}
	if data.Mode != wizard.ModeCreate {
		t.Fatalf("feed instances should default to create mode, got %q", data.Mode)
	}
	if data.Progress[wizard.StepUpload] == nil || data.Progress[wizard.StepUpload].Status != wizard.StepInProgress {
		t.Fatalf("first step not opened: %+v", data.Progress)
	}
}

func TestCreateInstance_UnknownType(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.wizards.CreateInstance(context.Background(), testPrincipal(), CreateInstanceRequest{Type: "payroll_feed"})
	if !apierr.Is(err, apierr.CodeTypeNotFound) {
		t.Fatalf("expected type_not_found, got %v", err)
	}
}

func TestCreateInstance_MonthlyPeriodGuard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	principal := testPrincipal()
	employerID := uuid.New()

	req := CreateInstanceRequest{
		Type:            "employer_remittance",
		EntityID:        &employerID,
		LaunchArguments: map[string]any{"year": 2026, "month": 7},
	}
	first, err := env.wizards.CreateInstance(ctx, principal, req)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	// Same employer, same period: blocked regardless of who asks.
	_, err = env.wizards.CreateInstance(ctx, adminPrincipal(), req)
	if !apierr.Is(err, apierr.CodeDuplicatePeriod) {
		t.Fatalf("expected duplicate_period, got %v", err)
	}

	// A different month, employer, or entity is a different slot.
	otherMonth := req
	otherMonth.LaunchArguments = map[string]any{"year": 2026, "month": 8}
	if _, err := env.wizards.CreateInstance(ctx, principal, otherMonth); err != nil {
		t.Fatalf("different month should be allowed: %v", err)
	}
	otherEmployer := uuid.New()
	otherReq := req
	otherReq.EntityID = &otherEmployer
	if _, err := env.wizards.CreateInstance(ctx, principal, otherReq); err != nil {
		t.Fatalf("different employer should be allowed: %v", err)
	}

	// Deleting the holder frees the slot.
	if err := env.wizards.DeleteInstance(ctx, principal, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.wizards.CreateInstance(ctx, principal, req); err != nil {
		t.Fatalf("slot should be free after delete: %v", err)
	}
}

func TestCreateInstance_MonthlyRequiresEntityAndPeriod(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	principal := testPrincipal()
	employerID := uuid.New()

	_, err := env.wizards.CreateInstance(ctx, principal, CreateInstanceRequest{
		Type:            "employer_remittance",
		LaunchArguments: map[string]any{"year": 2026, "month": 7},
	})
	if !apierr.Is(err, apierr.CodeMissingArgument) {
		t.Fatalf("expected missing_argument without an employer, got %v", err)
	}

	_, err = env.wizards.CreateInstance(ctx, principal, CreateInstanceRequest{
		Type:            "employer_remittance",
		EntityID:        &employerID,
		LaunchArguments: map[string]any{"year": 2026, "month": 13},
	})
	if !apierr.Is(err, apierr.CodeInvalidArgument) {
		t.Fatalf("expected invalid_argument for month 13, got %v", err)
	}
}

func TestCreateInstance_CorrectionsPrerequisite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	principal := testPrincipal()
	employerID := uuid.New()
	args := map[string]any{"year": 2026, "month": 4}

	corrections := CreateInstanceRequest{
		Type:            "employer_remittance_corrections",
		EntityID:        &employerID,
		LaunchArguments: args,
	}

	// No monthly wizard for the period at all.
	_, err := env.wizards.CreateInstance(ctx, principal, corrections)
	if !apierr.Is(err, apierr.CodeMissingPrerequisite) {
		t.Fatalf("expected missing_prerequisite, got %v", err)
	}

	monthly, err := env.wizards.CreateInstance(ctx, principal, CreateInstanceRequest{
		Type:            "employer_remittance",
		EntityID:        &employerID,
		LaunchArguments: args,
	})
	if err != nil {
		t.Fatalf("monthly create: %v", err)
	}

	// Monthly exists but is not completed yet.
	_, err = env.wizards.CreateInstance(ctx, principal, corrections)
	if !apierr.Is(err, apierr.CodeMissingPrerequisite) {
		t.Fatalf("expected missing_prerequisite while monthly is open, got %v", err)
	}

	monthly.Status = wizard.StatusCompleted
	if err := env.instRepo.Update(ctx, nil, monthly); err != nil {
		t.Fatalf("completing monthly: %v", err)
	}

	if _, err := env.wizards.CreateInstance(ctx, principal, corrections); err != nil {
		t.Fatalf("corrections after completed monthly: %v", err)
	}

	// One corrections wizard per period.
	_, err = env.wizards.CreateInstance(ctx, principal, corrections)
	if !apierr.Is(err, apierr.CodeDuplicatePeriod) {
		t.Fatalf("expected duplicate_period for second corrections, got %v", err)
	}
}

func TestGetInstance_OwnershipPolicy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := testPrincipal()

	inst, err := env.wizards.CreateInstance(ctx, owner, CreateInstanceRequest{Type: "worker_enrollment"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = env.wizards.GetInstance(ctx, testPrincipal(), inst.ID)
	if !apierr.Is(err, apierr.CodeAccessDenied) {
		t.Fatalf("expected access_denied for a stranger, got %v", err)
	}
	if _, err := env.wizards.GetInstance(ctx, adminPrincipal(), inst.ID); err != nil {
		t.Fatalf("admin should see any instance: %v", err)
	}
	_, err = env.wizards.GetInstance(ctx, owner, uuid.New())
	if !apierr.Is(err, apierr.CodeNotFound) {
		t.Fatalf("expected not_found for unknown id, got %v", err)
	}
}

func TestListInstances_ScopesToOwnerUnlessAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := testPrincipal()
	bob := testPrincipal()

	if _, err := env.wizards.CreateInstance(ctx, alice, CreateInstanceRequest{Type: "worker_enrollment"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.wizards.CreateInstance(ctx, bob, CreateInstanceRequest{Type: "worker_enrollment"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := env.wizards.ListInstances(ctx, alice, repos.WizardInstanceFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].CreatedBy != alice.UserID {
		t.Fatalf("non-admin list should only show own instances, got %d", len(mine))
	}

	all, err := env.wizards.ListInstances(ctx, adminPrincipal(), repos.WizardInstanceFilter{Type: "worker_enrollment"})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin should see both instances, got %d", len(all))
	}
}

func TestAdvanceAndRetreat_PersistCurrentStep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	principal := testPrincipal()

	inst, err := env.wizards.CreateInstance(ctx, principal, CreateInstanceRequest{Type: "employer_feed"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = env.wizards.Advance(ctx, principal, inst.ID, nil)
	if !apierr.Is(err, apierr.CodeStepIncomplete) {
		t.Fatalf("expected step_incomplete before upload, got %v", err)
	}

	env.uploadCSV(t, principal, inst.ID, "Employer Number,Name,EIN\n100,Acme,12-3456789\n")
	moved, err := env.wizards.Advance(ctx, principal, inst.ID, nil)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if moved.CurrentStep != wizard.StepMap {
		t.Fatalf("expected map step, got %q", moved.CurrentStep)
	}

	back, err := env.wizards.Retreat(ctx, principal, inst.ID)
	if err != nil {
		t.Fatalf("retreat: %v", err)
	}
	if back.CurrentStep != wizard.StepUpload {
		t.Fatalf("expected upload step after retreat, got %q", back.CurrentStep)
	}

	reloaded, err := env.wizards.GetInstance(ctx, principal, inst.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.CurrentStep != wizard.StepUpload {
		t.Fatalf("current step not persisted, got %q", reloaded.CurrentStep)
	}
}

func TestUpdateInstanceData_RejectsDuplicateMapping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	principal := testPrincipal()

	inst, err := env.wizards.CreateInstance(ctx, principal, CreateInstanceRequest{Type: "employer_feed"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = env.wizards.UpdateInstanceData(ctx, principal, inst.ID, wizard.DataPatch{
		ColumnMapping: map[int]string{0: "number", 1: "number"},
	})
	if !apierr.Is(err, apierr.CodeDuplicateMapping) {
		t.Fatalf("expected duplicate_mapping, got %v", err)
	}
}

func TestDeleteInstance_CascadesFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	principal := testPrincipal()

	inst, err := env.wizards.CreateInstance(ctx, principal, CreateInstanceRequest{Type: "employer_feed"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	fileID := env.uploadCSV(t, principal, inst.ID, "Employer Number\n100\n")

	if err := env.wizards.DeleteInstance(ctx, principal, inst.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err = env.wizards.GetInstance(ctx, principal, inst.ID)
	if !apierr.Is(err, apierr.CodeNotFound) {
		t.Fatalf("expected not_found after delete, got %v", err)
	}
	if env.parser.FileExists(ctx, fileID) {
		t.Fatalf("wizard files should be removed with the instance")
	}
}
