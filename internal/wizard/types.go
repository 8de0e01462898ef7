package wizard

// Well-known step ids. Feed wizards use the full upload->review chain; other
// wizard types are free to define their own ids, which the machine treats as
// trivially completable.
const (
	StepUpload   = "upload"
	StepMap      = "map"
	StepValidate = "validate"
	StepProcess  = "process"
	StepReview   = "review"
)

const (
	StatusInProgress  = "in_progress"
	StatusCompleted   = "completed"
	StatusNeedsReview = "needs_review"
)

const (
	ModeCreate = "create"
	ModeUpdate = "update"
)

// Unmapped is the sentinel a column mapping entry carries when the source
// column feeds no target field.
const Unmapped = "unmapped"

type EntityType string

const (
	EntityNone     EntityType = "none"
	EntityEmployer EntityType = "employer"
	EntityWorker   EntityType = "worker"
)

type StepDef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type FieldDef struct {
	ID                string `json:"id"`
	Label             string `json:"label"`
	Required          bool   `json:"required"`
	RequiredForCreate bool   `json:"required_for_create"`
	RequiredForUpdate bool   `json:"required_for_update"`
}

type ArgType string

const (
	ArgString ArgType = "string"
	ArgInt    ArgType = "int"
)

type ArgDef struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Required bool    `json:"required"`
	Type     ArgType `json:"type"`
}

type MonthlyKind string

const (
	MonthlyKindMonthly     MonthlyKind = "monthly"
	MonthlyKindCorrections MonthlyKind = "corrections"
)

// FeedSpec is attached to types capable of bulk file import. KeyField names
// the field used to locate existing records in update mode.
type FeedSpec struct {
	Fields   []FieldDef `json:"fields"`
	KeyField string     `json:"key_field"`
}

// MonthlySpec marks a type as period-scoped. Types sharing a Group compete
// for the same (employer, year, month) slot; a corrections type requires a
// completed monthly sibling in its group for the same period.
type MonthlySpec struct {
	Kind  MonthlyKind `json:"kind"`
	Group string      `json:"group"`
}

type ReportColumn struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type ReportSpec struct {
	Columns []ReportColumn `json:"columns"`
}

// Type is one entry of the compiled-in wizard catalog. Capability behavior
// hangs off the optional Feed/Monthly/Report specs rather than type identity.
type Type struct {
	Name            string       `json:"name"`
	DisplayName     string       `json:"display_name"`
	Description     string       `json:"description"`
	Entity          EntityType   `json:"entity_type"`
	Steps           []StepDef    `json:"steps"`
	Statuses        []string     `json:"statuses"`
	LaunchArguments []ArgDef     `json:"launch_arguments,omitempty"`
	Feed            *FeedSpec    `json:"feed,omitempty"`
	Monthly         *MonthlySpec `json:"monthly,omitempty"`
	Report          *ReportSpec  `json:"report,omitempty"`
}

func (t *Type) IsFeed() bool    { return t.Feed != nil }
func (t *Type) IsMonthly() bool { return t.Monthly != nil }
func (t *Type) IsReport() bool  { return t.Report != nil }

func (t *Type) FirstStep() StepDef { return t.Steps[0] }
func (t *Type) LastStep() StepDef  { return t.Steps[len(t.Steps)-1] }

// StepIndex returns the position of the step id in type order, or -1.
func (t *Type) StepIndex(id string) int {
	for i, s := range t.Steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (t *Type) HasStatus(status string) bool {
	if status == StatusNeedsReview {
		return true
	}
	for _, s := range t.Statuses {
		if s == status {
			return true
		}
	}
	return false
}
