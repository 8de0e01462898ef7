package wizard

import (
	"testing"

	"github.com/google/uuid"

	"github.com/benetrust/trustadmin-backend/internal/platform/apierr"
)

func feedType(t *testing.T) *Type {
	t.Helper()
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	typ, err := reg.Get("employer_feed")
	if err != nil {
		t.Fatalf("employer_feed missing from catalog: %v", err)
	}
	return typ
}

func alwaysExists(uuid.UUID) bool { return true }

func completeMapping(typ *Type) map[int]string {
	mapping := make(map[int]string)
	for i, f := range typ.Feed.Fields {
		mapping[i] = f.ID
	}
	return mapping
}

func TestNewInstanceData_FirstStepInProgress(t *testing.T) {
	typ := feedType(t)
	data := NewInstanceData(typ, nil)

	if len(data.Progress) != 1 {
		t.Fatalf("expected exactly one step in progress map, got %d", len(data.Progress))
	}
	first := data.Progress[typ.FirstStep().ID]
	if first == nil || first.Status != StepInProgress {
		t.Fatalf("expected first step in_progress, got %+v", first)
	}
}

func TestAdvance_RejectsIncompleteUpload(t *testing.T) {
	typ := feedType(t)
	m := NewMachine(typ)
	data := NewInstanceData(typ, nil)

	_, err := m.Advance(data, StepUpload, nil, alwaysExists)
	if !apierr.Is(err, apierr.CodeStepIncomplete) {
		t.Fatalf("expected step_incomplete, got %v", err)
	}
	if len(data.Progress) != 1 || data.Progress[StepUpload].Status != StepInProgress {
		t.Fatalf("failed advance mutated data: %+v", data.Progress)
	}
}

func TestAdvance_RejectsMissingFile(t *testing.T) {
	typ := feedType(t)
	m := NewMachine(typ)
	data := NewInstanceData(typ, nil)
	fileID := uuid.New()
	data.UploadedFileID = &fileID

	_, err := m.Advance(data, StepUpload, nil, func(uuid.UUID) bool { return false })
	if !apierr.Is(err, apierr.CodeStepIncomplete) {
		t.Fatalf("expected step_incomplete when file is gone, got %v", err)
	}
}

func TestAdvance_MovesToNextStep(t *testing.T) {
	typ := feedType(t)
	m := NewMachine(typ)
	data := NewInstanceData(typ, nil)
	fileID := uuid.New()
	data.UploadedFileID = &fileID

	next, err := m.Advance(data, StepUpload, map[string]any{"note": "first pass"}, alwaysExists)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if next != StepMap {
		t.Fatalf("expected next=map, got %q", next)
	}
	up := data.Progress[StepUpload]
	if up.Status != StepCompleted || up.CompletedAt == nil {
		t.Fatalf("upload not marked completed: %+v", up)
	}
	if up.Payload["note"] != "first pass" {
		t.Fatalf("payload not merged: %+v", up.Payload)
	}
	if data.Progress[StepMap].Status != StepInProgress {
		t.Fatalf("map step not opened: %+v", data.Progress[StepMap])
	}
}

func TestAdvance_RejectsLastStep(t *testing.T) {
	typ := feedType(t)
	m := NewMachine(typ)
	data := NewInstanceData(typ, nil)

	_, err := m.Advance(data, StepReview, nil, alwaysExists)
	if !apierr.Is(err, apierr.CodeInvalidTransition) {
		t.Fatalf("expected invalid_transition at last step, got %v", err)
	}
}

func TestAdvance_UnknownStep(t *testing.T) {
	typ := feedType(t)
	m := NewMachine(typ)

	_, err := m.Advance(NewInstanceData(typ, nil), "shipping", nil, alwaysExists)
	if !apierr.Is(err, apierr.CodeStepNotFound) {
		t.Fatalf("expected step_not_found, got %v", err)
	}
}

func TestAdvance_MapRequiresRequiredFields(t *testing.T) {
	typ := feedType(t)
	m := NewMachine(typ)
	data := NewInstanceData(typ, nil)
	data.Mode = ModeCreate
	// number mapped but name/ein (required for create) missing.
	data.ColumnMapping = map[int]string{0: "number", 1: Unmapped}

	_, err := m.Advance(data, StepMap, nil, alwaysExists)
	if !apierr.Is(err, apierr.CodeStepIncomplete) {
		t.Fatalf("expected step_incomplete for unmapped required fields, got %v", err)
	}

	data.ColumnMapping = map[int]string{0: "number", 1: "name", 2: "ein"}
	if _, err := m.Advance(data, StepMap, nil, alwaysExists); err != nil {
		t.Fatalf("advance with complete mapping: %v", err)
	}
}

func TestAdvance_UpdateModeNeedsOnlyKeyField(t *testing.T) {
	typ := feedType(t)
	m := NewMachine(typ)
	data := NewInstanceData(typ, nil)
	data.Mode = ModeUpdate
	data.ColumnMapping = map[int]string{0: "number", 1: "city"}

	if _, err := m.Advance(data, StepMap, nil, alwaysExists); err != nil {
		t.Fatalf("update mode should not require create-only fields: %v", err)
	}
}

func TestAdvance_ValidateRequiresCleanResults(t *testing.T) {
	typ := feedType(t)
	m := NewMachine(typ)
	data := NewInstanceData(typ, nil)

	_, err := m.Advance(data, StepValidate, nil, alwaysExists)
	if !apierr.Is(err, apierr.CodeStepIncomplete) {
		t.Fatalf("expected step_incomplete without validation results, got %v", err)
	}

	data.ValidationResults = &ValidationResults{TotalRows: 10, InvalidRows: 2}
	_, err = m.Advance(data, StepValidate, nil, alwaysExists)
	if !apierr.Is(err, apierr.CodeStepIncomplete) {
		t.Fatalf("expected step_incomplete with invalid rows, got %v", err)
	}

	data.ValidationResults = &ValidationResults{TotalRows: 10}
	if _, err := m.Advance(data, StepValidate, nil, alwaysExists); err != nil {
		t.Fatalf("advance with clean validation: %v", err)
	}
}

func TestRetreat_ReopensPreviousStepKeepingPayload(t *testing.T) {
	typ := feedType(t)
	m := NewMachine(typ)
	data := NewInstanceData(typ, nil)
	fileID := uuid.New()
	data.UploadedFileID = &fileID

	if _, err := m.Advance(data, StepUpload, map[string]any{"note": "kept"}, alwaysExists); err != nil {
		t.Fatalf("advance: %v", err)
	}
	prev, err := m.Retreat(data, StepMap)
	if err != nil {
		t.Fatalf("retreat: %v", err)
	}
	if prev != StepUpload {
		t.Fatalf("expected prev=upload, got %q", prev)
	}
	up := data.Progress[StepUpload]
	if up.Status != StepInProgress || up.CompletedAt != nil {
		t.Fatalf("upload not reopened: %+v", up)
	}
	if up.Payload["note"] != "kept" {
		t.Fatalf("retreat dropped payload: %+v", up.Payload)
	}
	if data.Progress[StepMap].Status != StepPending {
		t.Fatalf("map step should be pending, got %+v", data.Progress[StepMap])
	}
}

func TestRetreat_RejectsFirstStep(t *testing.T) {
	typ := feedType(t)
	m := NewMachine(typ)

	_, err := m.Retreat(NewInstanceData(typ, nil), StepUpload)
	if !apierr.Is(err, apierr.CodeInvalidTransition) {
		t.Fatalf("expected invalid_transition at first step, got %v", err)
	}
}

func TestValidateMapping_RejectsDuplicateTarget(t *testing.T) {
	err := ValidateMapping(map[int]string{0: "number", 3: "number"})
	if !apierr.Is(err, apierr.CodeDuplicateMapping) {
		t.Fatalf("expected duplicate_mapping, got %v", err)
	}
	if err := ValidateMapping(map[int]string{0: "number", 1: Unmapped, 2: Unmapped}); err != nil {
		t.Fatalf("repeated unmapped sentinel should be allowed: %v", err)
	}
}

func TestApplyPatch_FileChangeClearsDownstream(t *testing.T) {
	typ := feedType(t)
	m := NewMachine(typ)
	data := NewInstanceData(typ, nil)
	oldFile := uuid.New()
	data.UploadedFileID = &oldFile

	// Walk the instance to the validate step with everything filled in.
	if _, err := m.Advance(data, StepUpload, nil, alwaysExists); err != nil {
		t.Fatalf("advance upload: %v", err)
	}
	hasHeaders := true
	if err := m.ApplyPatch(data, DataPatch{
		ColumnMapping: completeMapping(typ),
		HasHeaders:    &hasHeaders,
	}); err != nil {
		t.Fatalf("apply mapping patch: %v", err)
	}
	if _, err := m.Advance(data, StepMap, nil, alwaysExists); err != nil {
		t.Fatalf("advance map: %v", err)
	}
	data.ValidationResults = &ValidationResults{TotalRows: 5}

	newFile := uuid.New()
	if err := m.ApplyPatch(data, DataPatch{UploadedFileID: &newFile}); err != nil {
		t.Fatalf("apply file patch: %v", err)
	}

	if data.ColumnMapping != nil || data.HasHeaders != nil || data.ValidationResults != nil {
		t.Fatalf("file change should clear mapping state: mapping=%v headers=%v validation=%v",
			data.ColumnMapping, data.HasHeaders, data.ValidationResults)
	}
	for _, id := range []string{StepMap, StepValidate, StepProcess, StepReview} {
		if _, ok := data.Progress[id]; ok {
			t.Fatalf("step %q should have been reset", id)
		}
	}
	if data.Progress[StepUpload] == nil {
		t.Fatalf("upload progress should survive a file swap")
	}
	if data.UploadedFileID == nil || *data.UploadedFileID != newFile {
		t.Fatalf("new file id not applied")
	}
}

func TestApplyPatch_SameFileIsNotAChange(t *testing.T) {
	typ := feedType(t)
	m := NewMachine(typ)
	data := NewInstanceData(typ, nil)
	fileID := uuid.New()
	data.UploadedFileID = &fileID
	data.ColumnMapping = map[int]string{0: "number"}

	same := fileID
	if err := m.ApplyPatch(data, DataPatch{UploadedFileID: &same}); err != nil {
		t.Fatalf("apply patch: %v", err)
	}
	if data.ColumnMapping == nil {
		t.Fatalf("re-submitting the same file must not clear the mapping")
	}
}

func TestApplyPatch_MappingChangeClearsValidation(t *testing.T) {
	typ := feedType(t)
	m := NewMachine(typ)
	data := NewInstanceData(typ, nil)
	fileID := uuid.New()
	data.UploadedFileID = &fileID
	data.ValidationResults = &ValidationResults{TotalRows: 3}
	data.Progress[StepValidate] = &StepProgress{Status: StepCompleted}

	if err := m.ApplyPatch(data, DataPatch{ColumnMapping: map[int]string{0: "number"}}); err != nil {
		t.Fatalf("apply patch: %v", err)
	}
	if data.ValidationResults != nil {
		t.Fatalf("mapping change should clear validation results")
	}
	if _, ok := data.Progress[StepValidate]; ok {
		t.Fatalf("validate step should have been reset")
	}
	if data.UploadedFileID == nil {
		t.Fatalf("mapping change must not touch the uploaded file")
	}
}

func TestApplyPatch_ModeChangeClearsValidation(t *testing.T) {
	typ := feedType(t)
	m := NewMachine(typ)
	data := NewInstanceData(typ, nil)
	data.Mode = ModeCreate
	data.ValidationResults = &ValidationResults{TotalRows: 3}

	mode := ModeUpdate
	if err := m.ApplyPatch(data, DataPatch{Mode: &mode}); err != nil {
		t.Fatalf("apply patch: %v", err)
	}
	if data.ValidationResults != nil {
		t.Fatalf("mode change should clear validation results")
	}

	// Writing the same mode back is a no-op.
	data.ValidationResults = &ValidationResults{TotalRows: 3}
	if err := m.ApplyPatch(data, DataPatch{Mode: &mode}); err != nil {
		t.Fatalf("apply patch: %v", err)
	}
	if data.ValidationResults == nil {
		t.Fatalf("unchanged mode must not clear validation results")
	}
}

func TestApplyPatch_RejectsDuplicateMapping(t *testing.T) {
	typ := feedType(t)
	m := NewMachine(typ)
	data := NewInstanceData(typ, nil)
	data.ValidationResults = &ValidationResults{TotalRows: 1}

	err := m.ApplyPatch(data, DataPatch{ColumnMapping: map[int]string{0: "name", 1: "name"}})
	if !apierr.Is(err, apierr.CodeDuplicateMapping) {
		t.Fatalf("expected duplicate_mapping, got %v", err)
	}
	if data.ValidationResults == nil {
		t.Fatalf("rejected patch must leave data untouched")
	}
}

func TestRequiredFields_ModeSpecific(t *testing.T) {
	typ := feedType(t)

	createIDs := map[string]bool{}
	for _, f := range RequiredFields(typ.Feed, ModeCreate) {
		createIDs[f.ID] = true
	}
	if !createIDs["number"] || !createIDs["name"] || !createIDs["ein"] {
		t.Fatalf("create mode should require number, name, ein: %v", createIDs)
	}

	updateIDs := map[string]bool{}
	for _, f := range RequiredFields(typ.Feed, ModeUpdate) {
		updateIDs[f.ID] = true
	}
	if !updateIDs["number"] || updateIDs["name"] || updateIDs["ein"] {
		t.Fatalf("update mode should require only the always-required fields: %v", updateIDs)
	}
}
