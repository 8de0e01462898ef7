package wizard

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/benetrust/trustadmin-backend/internal/platform/apierr"
)

// FileChecker reports whether an uploaded file is still present in the file
// collaborator. The upload step predicate needs it; everything else in the
// machine is pure.
type FileChecker func(fileID uuid.UUID) bool

// Machine evaluates step transitions for one wizard type. It mutates only
// the InstanceData handed to it; persistence belongs to the caller.
type Machine struct {
	Type *Type
}

func NewMachine(t *Type) *Machine { return &Machine{Type: t} }

// RequiredFields resolves which feed fields must be mapped for the given
// mode: always-required fields plus the mode-specific ones.
func RequiredFields(feed *FeedSpec, mode string) []FieldDef {
	if feed == nil {
		return nil
	}
	var out []FieldDef
	for _, f := range feed.Fields {
		switch {
		case f.Required:
			out = append(out, f)
		case mode == ModeCreate && f.RequiredForCreate:
			out = append(out, f)
		case mode == ModeUpdate && f.RequiredForUpdate:
			out = append(out, f)
		}
	}
	return out
}

// StepComplete evaluates the completion predicate for the given step id.
// A nil return means the step may be left via Advance.
func (m *Machine) StepComplete(data *InstanceData, stepID string, fileExists FileChecker) error {
	switch stepID {
	case StepUpload:
		if data.UploadedFileID == nil {
			return apierr.BadRequest(apierr.CodeStepIncomplete, fmt.Errorf("no file uploaded"))
		}
		if fileExists == nil || !fileExists(*data.UploadedFileID) {
			return apierr.BadRequest(apierr.CodeStepIncomplete, fmt.Errorf("uploaded file no longer exists"))
		}
	case StepMap:
		if m.Type.Feed == nil {
			return nil
		}
		mapped := data.MappedFields()
		for _, f := range RequiredFields(m.Type.Feed, data.Mode) {
			if !mapped[f.ID] {
				return apierr.BadRequest(apierr.CodeStepIncomplete, fmt.Errorf("required field %q is not mapped", f.ID))
			}
		}
	case StepValidate:
		if data.ValidationResults == nil {
			return apierr.BadRequest(apierr.CodeStepIncomplete, fmt.Errorf("rows have not been validated"))
		}
		if data.ValidationResults.InvalidRows != 0 {
			return apierr.BadRequest(apierr.CodeStepIncomplete,
				fmt.Errorf("%d rows failed validation", data.ValidationResults.InvalidRows))
		}
	}
	return nil
}

// Advance marks the current step completed and moves to the next one. On any
// error the data is left untouched.
func (m *Machine) Advance(data *InstanceData, currentStep string, payload map[string]any, fileExists FileChecker) (string, error) {
	idx := m.Type.StepIndex(currentStep)
	if idx < 0 {
		return "", apierr.NotFound(apierr.CodeStepNotFound, fmt.Errorf("unknown step %q", currentStep))
	}
	if idx == len(m.Type.Steps)-1 {
		return "", apierr.BadRequest(apierr.CodeInvalidTransition, fmt.Errorf("already at last step %q", currentStep))
	}
	if err := m.StepComplete(data, currentStep, fileExists); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	cur := data.Progress[currentStep]
	if cur == nil {
		cur = &StepProgress{}
		data.Progress[currentStep] = cur
	}
	cur.Status = StepCompleted
	cur.CompletedAt = &now
	if len(payload) > 0 {
		if cur.Payload == nil {
			cur.Payload = make(map[string]any, len(payload))
		}
		for k, v := range payload {
			cur.Payload[k] = v
		}
	}

	next := m.Type.Steps[idx+1].ID
	if data.Progress[next] == nil {
		data.Progress[next] = &StepProgress{Status: StepInProgress}
	} else {
		data.Progress[next].Status = StepInProgress
		data.Progress[next].CompletedAt = nil
	}
	return next, nil
}

// Retreat resets the current step to pending and reopens the preceding step,
// keeping its payload.
func (m *Machine) Retreat(data *InstanceData, currentStep string) (string, error) {
	idx := m.Type.StepIndex(currentStep)
	if idx < 0 {
		return "", apierr.NotFound(apierr.CodeStepNotFound, fmt.Errorf("unknown step %q", currentStep))
	}
	if idx == 0 {
		return "", apierr.BadRequest(apierr.CodeInvalidTransition, fmt.Errorf("already at first step %q", currentStep))
	}

	if cur := data.Progress[currentStep]; cur != nil {
		cur.Status = StepPending
		cur.CompletedAt = nil
	}
	prev := m.Type.Steps[idx-1].ID
	if data.Progress[prev] == nil {
		data.Progress[prev] = &StepProgress{Status: StepInProgress}
	} else {
		data.Progress[prev].Status = StepInProgress
		data.Progress[prev].CompletedAt = nil
	}
	return prev, nil
}

// DataPatch carries a partial update to instance data. Nil means untouched.
type DataPatch struct {
	Mode              *string
	UploadedFileID    *uuid.UUID
	ClearUploadedFile bool
	ColumnMapping     map[int]string
	HasHeaders        *bool
	LaunchArguments   map[string]any
	ValidationResults *ValidationResults
	ProcessResults    *ProcessResults
}

// ValidateMapping rejects mappings that bind two source columns to the same
// field.
func ValidateMapping(mapping map[int]string) error {
	seen := make(map[string]int, len(mapping))
	for col, fieldID := range mapping {
		if fieldID == "" || fieldID == Unmapped {
			continue
		}
		if prev, dup := seen[fieldID]; dup {
			return apierr.BadRequest(apierr.CodeDuplicateMapping,
				fmt.Errorf("field %q mapped from columns %d and %d", fieldID, prev, col))
		}
		seen[fieldID] = col
	}
	return nil
}

// ApplyPatch merges a partial update into data and performs the cascading
// invalidation: a file change clears everything downstream of upload; a
// mapping, header-flag, or mode change clears everything downstream of map.
func (m *Machine) ApplyPatch(data *InstanceData, patch DataPatch) error {
	if patch.ColumnMapping != nil {
		if err := ValidateMapping(patch.ColumnMapping); err != nil {
			return err
		}
	}

	fileChanged := false
	if patch.ClearUploadedFile {
		fileChanged = data.UploadedFileID != nil
		data.UploadedFileID = nil
	} else if patch.UploadedFileID != nil {
		fileChanged = data.UploadedFileID == nil || *data.UploadedFileID != *patch.UploadedFileID
		data.UploadedFileID = patch.UploadedFileID
	}

	mappingChanged := false
	if patch.ColumnMapping != nil {
		mappingChanged = true
		data.ColumnMapping = patch.ColumnMapping
	}
	if patch.HasHeaders != nil {
		if data.HasHeaders == nil || *data.HasHeaders != *patch.HasHeaders {
			mappingChanged = true
		}
		data.HasHeaders = patch.HasHeaders
	}
	if patch.Mode != nil {
		if data.Mode != *patch.Mode {
			mappingChanged = true
		}
		data.Mode = *patch.Mode
	}

	if patch.LaunchArguments != nil {
		if data.LaunchArguments == nil {
			data.LaunchArguments = make(map[string]any, len(patch.LaunchArguments))
		}
		for k, v := range patch.LaunchArguments {
			data.LaunchArguments[k] = v
		}
	}
	if patch.ValidationResults != nil {
		data.ValidationResults = patch.ValidationResults
	}
	if patch.ProcessResults != nil {
		data.ProcessResults = patch.ProcessResults
	}

	switch {
	case fileChanged:
		data.ColumnMapping = nil
		data.HasHeaders = nil
		data.ValidationResults = nil
		m.resetSteps(data, StepMap, StepValidate, StepProcess, StepReview)
	case mappingChanged:
		data.ValidationResults = nil
		m.resetSteps(data, StepValidate, StepProcess, StepReview)
	}
	return nil
}

func (m *Machine) resetSteps(data *InstanceData, stepIDs ...string) {
	for _, id := range stepIDs {
		delete(data.Progress, id)
	}
}
