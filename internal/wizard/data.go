package wizard

import (
	"time"

	"github.com/google/uuid"
)

type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
)

type StepProgress struct {
	Status      StepStatus     `json:"status"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type ValidationResults struct {
	TotalRows   int        `json:"total_rows"`
	InvalidRows int        `json:"invalid_rows"`
	RowErrors   []RowError `json:"row_errors,omitempty"`
}

type ProcessResults struct {
	Processed     int        `json:"processed"`
	CreatedCount  int        `json:"created_count"`
	UpdatedCount  int        `json:"updated_count"`
	SuccessCount  int        `json:"success_count"`
	FailureCount  int        `json:"failure_count"`
	CurrentRow    int        `json:"current_row"`
	RowErrors     []RowError `json:"row_errors,omitempty"`
	ResultsFileID *uuid.UUID `json:"results_file_id,omitempty"`
}

type ReportResults struct {
	RowCount      int        `json:"row_count"`
	ResultsFileID *uuid.UUID `json:"results_file_id,omitempty"`
	GeneratedAt   time.Time  `json:"generated_at"`
}

// InstanceData is the opaque payload persisted on a wizard instance. Feed
// fields are only populated for feed-capable types.
type InstanceData struct {
	Progress map[string]*StepProgress `json:"progress"`

	Mode              string             `json:"mode,omitempty"`
	UploadedFileID    *uuid.UUID         `json:"uploaded_file_id,omitempty"`
	ColumnMapping     map[int]string     `json:"column_mapping,omitempty"`
	HasHeaders        *bool              `json:"has_headers,omitempty"`
	ValidationResults *ValidationResults `json:"validation_results,omitempty"`
	ProcessResults    *ProcessResults    `json:"process_results,omitempty"`
	LaunchArguments   map[string]any     `json:"launch_arguments,omitempty"`
	ReportResults     *ReportResults     `json:"report_results,omitempty"`
}

// NewInstanceData builds the payload for a freshly created instance: the
// first step in progress, every other step absent from the progress map.
func NewInstanceData(t *Type, launchArgs map[string]any) *InstanceData {
	return &InstanceData{
		Progress: map[string]*StepProgress{
			t.FirstStep().ID: {Status: StepInProgress},
		},
		LaunchArguments: launchArgs,
	}
}

func (d *InstanceData) HasHeaderRow() bool {
	return d.HasHeaders != nil && *d.HasHeaders
}

// MappedFields returns the set of field ids currently bound to a source
// column, excluding the unmapped sentinel.
func (d *InstanceData) MappedFields() map[string]bool {
	out := make(map[string]bool, len(d.ColumnMapping))
	for _, fieldID := range d.ColumnMapping {
		if fieldID != "" && fieldID != Unmapped {
			out[fieldID] = true
		}
	}
	return out
}

// ColumnForField returns the source column index bound to fieldID, or -1.
func (d *InstanceData) ColumnForField(fieldID string) int {
	for col, f := range d.ColumnMapping {
		if f == fieldID {
			return col
		}
	}
	return -1
}
