package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

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

// ReportService is the read-only sibling of the feed pipeline: one query,
// one progress emission at completion, formatted output stored for later
// retrieval. No apply pass, no per-row branching.
type ReportService interface {
	Columns(typeName string) ([]wizard.ReportColumn, error)
	Generate(ctx context.Context, principal requestdata.Principal, wizardID uuid.UUID, onProgress OnProgress) (*wizard.ReportResults, error)
	GetResults(ctx context.Context, principal requestdata.Principal, wizardID uuid.UUID) ([][]string, error)
}

type reportService struct {
	db           *gorm.DB
	log          *logger.Logger
	registry     *wizard.Registry
	policy       policy.Evaluator
	instRepo     repos.WizardInstanceRepo
	employerRepo repos.EmployerRepo
	parser       ParserService
}

func NewReportService(
	db *gorm.DB,
	baseLog *logger.Logger,
	registry *wizard.Registry,
	policyEval policy.Evaluator,
	instRepo repos.WizardInstanceRepo,
	employerRepo repos.EmployerRepo,
	parser ParserService,
) ReportService {
	return &reportService{
		db:           db,
		log:          baseLog.With("service", "ReportService"),
		registry:     registry,
		policy:       policyEval,
		instRepo:     instRepo,
		employerRepo: employerRepo,
		parser:       parser,
	}
}

func (s *reportService) Columns(typeName string) ([]wizard.ReportColumn, error) {
	t, err := s.registry.Get(typeName)
	if err != nil {
		return nil, err
	}
	if t.Report == nil {
		return nil, apierr.BadRequest(apierr.CodeInvalidArgument,
			fmt.Errorf("wizard type %q is not a report type", typeName))
	}
	return t.Report.Columns, nil
}

func (s *reportService) Generate(ctx context.Context, principal requestdata.Principal, wizardID uuid.UUID, onProgress OnProgress) (*wizard.ReportResults, error) {
	inst, err := loadAuthorizedInstance(ctx, s.instRepo, s.policy, principal, wizardID)
	if err != nil {
		return nil, err
	}
	t, err := s.registry.Get(inst.Type)
	if err != nil {
		return nil, err
	}
	if t.Report == nil {
		return nil, apierr.BadRequest(apierr.CodeInvalidArgument,
			fmt.Errorf("wizard type %q is not a report type", t.Name))
	}

	employers, err := s.employerRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := make([]string, len(t.Report.Columns))
	for i, col := range t.Report.Columns {
		header[i] = col.Label
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, e := range employers {
		record := make([]string, len(t.Report.Columns))
		for i, col := range t.Report.Columns {
			record[i] = employerColumn(e, col.ID)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	sf, err := s.parser.Upload(ctx, inst.ID, inst.CreatedBy, "report.csv", MimeCSV, &buf, int64(buf.Len()))
	if err != nil {
		return nil, err
	}

	results := &wizard.ReportResults{
		RowCount:      len(employers),
		ResultsFileID: &sf.ID,
		GeneratedAt:   time.Now().UTC(),
	}
	data, err := decodeInstanceData(inst)
	if err != nil {
		return nil, err
	}
	data.ReportResults = results
	if err := encodeInstanceData(inst, data); err != nil {
		return nil, err
	}
	if err := s.instRepo.Update(ctx, nil, inst); err != nil {
		return nil, err
	}

	if onProgress != nil {
		onProgress(Progress{Processed: len(employers), Total: len(employers)})
	}
	s.log.Info("Report generated", "wizard_id", wizardID, "rows", len(employers))
	return results, nil
}

func (s *reportService) GetResults(ctx context.Context, principal requestdata.Principal, wizardID uuid.UUID) ([][]string, error) {
	inst, err := loadAuthorizedInstance(ctx, s.instRepo, s.policy, principal, wizardID)
	if err != nil {
		return nil, err
	}
	data, err := decodeInstanceData(inst)
	if err != nil {
		return nil, err
	}
	if data.ReportResults == nil || data.ReportResults.ResultsFileID == nil {
		return nil, apierr.NotFound(apierr.CodeNotFound,
			fmt.Errorf("wizard %s has no generated report", wizardID))
	}
	parsed, err := s.parser.ParseAll(ctx, *data.ReportResults.ResultsFileID)
	if err != nil {
		return nil, err
	}
	return parsed.Rows, nil
}

func employerColumn(e *types.Employer, columnID string) string {
	switch columnID {
	case "number":
		return e.Number
	case "name":
		return e.Name
	case "ein":
		return e.EIN
	case "address":
		return e.Address
	case "city":
		return e.City
	case "state":
		return e.State
	case "zip":
		return e.Zip
	case "phone":
		return e.Phone
	case "email":
		return e.Email
	default:
		return ""
	}
}
