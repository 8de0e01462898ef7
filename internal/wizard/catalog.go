package wizard

// DefaultCatalog is the compiled-in set of wizard types the platform ships
// with. The feed steps reuse the well-known ids so the step machine's
// predicates and invalidation rules line up.
func DefaultCatalog() []Type {
	feedSteps := []StepDef{
		{ID: StepUpload, Label: "Upload File"},
		{ID: StepMap, Label: "Map Columns"},
		{ID: StepValidate, Label: "Validate Rows"},
		{ID: StepProcess, Label: "Process Rows"},
		{ID: StepReview, Label: "Review Results"},
	}
	baseStatuses := []string{StatusInProgress, StatusCompleted}

	return []Type{
		{
			Name:        "employer_feed",
			DisplayName: "Employer Bulk Import",
			Description: "Import or update employer records from a spreadsheet.",
			Entity:      EntityEmployer,
			Steps:       feedSteps,
			Statuses:    baseStatuses,
			Feed: &FeedSpec{
				KeyField: "number",
				Fields: []FieldDef{
					{ID: "number", Label: "Employer Number", Required: true},
					{ID: "name", Label: "Name", RequiredForCreate: true},
					{ID: "ein", Label: "EIN", RequiredForCreate: true},
					{ID: "address", Label: "Address"},
					{ID: "city", Label: "City"},
					{ID: "state", Label: "State"},
					{ID: "zip", Label: "Zip"},
					{ID: "phone", Label: "Phone"},
					{ID: "email", Label: "Email"},
				},
			},
		},
		{
			Name:        "worker_feed",
			DisplayName: "Worker Bulk Import",
			Description: "Import or update worker records from a spreadsheet.",
			Entity:      EntityWorker,
			Steps:       feedSteps,
			Statuses:    baseStatuses,
			Feed: &FeedSpec{
				KeyField: "ssn",
				Fields: []FieldDef{
					{ID: "ssn", Label: "SSN", Required: true},
					{ID: "first_name", Label: "First Name", RequiredForCreate: true},
					{ID: "last_name", Label: "Last Name", RequiredForCreate: true},
					{ID: "birth_date", Label: "Birth Date"},
					{ID: "employer_number", Label: "Employer Number"},
					{ID: "address", Label: "Address"},
					{ID: "city", Label: "City"},
					{ID: "state", Label: "State"},
					{ID: "zip", Label: "Zip"},
					{ID: "phone", Label: "Phone"},
					{ID: "email", Label: "Email"},
				},
			},
		},
		{
			Name:        "employer_remittance",
			DisplayName: "Monthly Remittance",
			Description: "Record an employer's monthly contribution remittance.",
			Entity:      EntityEmployer,
			Steps: []StepDef{
				{ID: "details", Label: "Remittance Details"},
				{ID: "contributions", Label: "Contributions"},
				{ID: "review", Label: "Review"},
				{ID: "submit", Label: "Submit"},
			},
			Statuses: baseStatuses,
			LaunchArguments: []ArgDef{
				{ID: "year", Name: "Year", Required: true, Type: ArgInt},
				{ID: "month", Name: "Month", Required: true, Type: ArgInt},
			},
			Monthly: &MonthlySpec{Kind: MonthlyKindMonthly, Group: "employer_remittance"},
		},
		{
			Name:        "employer_remittance_corrections",
			DisplayName: "Remittance Corrections",
			Description: "Correct a previously submitted monthly remittance.",
			Entity:      EntityEmployer,
			Steps: []StepDef{
				{ID: "details", Label: "Correction Details"},
				{ID: "adjustments", Label: "Adjustments"},
				{ID: "review", Label: "Review"},
				{ID: "submit", Label: "Submit"},
			},
			Statuses: baseStatuses,
			LaunchArguments: []ArgDef{
				{ID: "year", Name: "Year", Required: true, Type: ArgInt},
				{ID: "month", Name: "Month", Required: true, Type: ArgInt},
			},
			Monthly: &MonthlySpec{Kind: MonthlyKindCorrections, Group: "employer_remittance"},
		},
		{
			Name:        "worker_enrollment",
			DisplayName: "Worker Enrollment",
			Description: "Guided entry of a single worker's enrollment.",
			Entity:      EntityWorker,
			Steps: []StepDef{
				{ID: "identity", Label: "Identity"},
				{ID: "employment", Label: "Employment"},
				{ID: "benefits", Label: "Benefit Elections"},
				{ID: "review", Label: "Review"},
			},
			Statuses: baseStatuses,
		},
		{
			Name:        "employer_roster_report",
			DisplayName: "Employer Roster Report",
			Description: "Export the current employer roster.",
			Entity:      EntityNone,
			Steps: []StepDef{
				{ID: "configure", Label: "Configure"},
				{ID: "generate", Label: "Generate"},
				{ID: "review", Label: "Review"},
			},
			Statuses: baseStatuses,
			Report: &ReportSpec{
				Columns: []ReportColumn{
					{ID: "number", Label: "Employer Number"},
					{ID: "name", Label: "Name"},
					{ID: "ein", Label: "EIN"},
					{ID: "city", Label: "City"},
					{ID: "state", Label: "State"},
				},
			},
		},
	}
}

func DefaultRegistry() (*Registry, error) {
	return NewRegistry(DefaultCatalog()...)
}
