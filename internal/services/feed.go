package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/benetrust/trustadmin-backend/internal/platform/apierr"
	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
	"github.com/benetrust/trustadmin-backend/internal/platform/policy"
	"github.com/benetrust/trustadmin-backend/internal/repos"
	"github.com/benetrust/trustadmin-backend/internal/requestdata"
	"github.com/benetrust/trustadmin-backend/internal/types"
	"github.com/benetrust/trustadmin-backend/internal/wizard"
)

// FeedBatchSize is the fixed chunk size for both pipeline passes.
const FeedBatchSize = 100

// maxStoredRowErrors bounds the per-row error list persisted on the
// instance; counts are always exact.
const maxStoredRowErrors = 500

// Progress is pushed to the caller between batches, in batch order.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
	Failures  int `json:"failures"`
}

type OnProgress func(Progress)

type FeedService interface {
	Validate(ctx context.Context, principal requestdata.Principal, wizardID uuid.UUID, onProgress OnProgress) (*wizard.ValidationResults, error)
	Process(ctx context.Context, principal requestdata.Principal, wizardID uuid.UUID, onProgress OnProgress) (*wizard.ProcessResults, error)
}

type feedService struct {
	db       *gorm.DB
	log      *logger.Logger
	registry *wizard.Registry
	policy   policy.Evaluator
	instRepo repos.WizardInstanceRepo
	parser   ParserService
	appliers map[wizard.EntityType]RecordApplier
}

func NewFeedService(
	db *gorm.DB,
	baseLog *logger.Logger,
	registry *wizard.Registry,
	policyEval policy.Evaluator,
	instRepo repos.WizardInstanceRepo,
	parser ParserService,
	appliers map[wizard.EntityType]RecordApplier,
) FeedService {
	return &feedService{
		db:       db,
		log:      baseLog.With("service", "FeedService"),
		registry: registry,
		policy:   policyEval,
		instRepo: instRepo,
		parser:   parser,
		appliers: appliers,
	}
}

// loadFeedRun gathers everything both passes need: the authorized instance,
// its type, decoded data, and the parsed data rows (header stripped).
func (s *feedService) loadFeedRun(ctx context.Context, principal requestdata.Principal, wizardID uuid.UUID) (*types.WizardInstance, *wizard.Type, *wizard.InstanceData, [][]string, int, error) {
	inst, err := loadAuthorizedInstance(ctx, s.instRepo, s.policy, principal, wizardID)
	if err != nil {
		return nil, nil, nil, nil, 0, err
	}
	t, err := s.registry.Get(inst.Type)
	if err != nil {
		return nil, nil, nil, nil, 0, err
	}
	if !t.IsFeed() {
		return nil, nil, nil, nil, 0, apierr.BadRequest(apierr.CodeInvalidTransition,
			fmt.Errorf("wizard type %q is not feed-capable", t.Name))
	}
	data, err := decodeInstanceData(inst)
	if err != nil {
		return nil, nil, nil, nil, 0, err
	}
	if data.UploadedFileID == nil {
		return nil, nil, nil, nil, 0, apierr.BadRequest(apierr.CodeStepIncomplete, fmt.Errorf("no file uploaded"))
	}
	if len(data.ColumnMapping) == 0 {
		return nil, nil, nil, nil, 0, apierr.BadRequest(apierr.CodeStepIncomplete, fmt.Errorf("no column mapping set"))
	}

	parsed, err := s.parser.ParseAll(ctx, *data.UploadedFileID)
	if err != nil {
		return nil, nil, nil, nil, 0, err
	}
	rows := parsed.Rows
	rowOffset := 1 // 1-based file row numbers in per-row errors
	if data.HasHeaderRow() && len(rows) > 0 {
		rows = rows[1:]
		rowOffset = 2
	}
	return inst, t, data, rows, rowOffset, nil
}

// rowFields resolves one parsed row through the column mapping.
func rowFields(data *wizard.InstanceData, row []string) map[string]string {
	fields := make(map[string]string, len(data.ColumnMapping))
	for col, fieldID := range data.ColumnMapping {
		if fieldID == "" || fieldID == wizard.Unmapped {
			continue
		}
		if col >= 0 && col < len(row) {
			fields[fieldID] = strings.TrimSpace(row[col])
		} else {
			fields[fieldID] = ""
		}
	}
	return fields
}

func (s *feedService) Validate(ctx context.Context, principal requestdata.Principal, wizardID uuid.UUID, onProgress OnProgress) (*wizard.ValidationResults, error) {
	ctx, span := otel.Tracer("feed").Start(ctx, "feed.validate")
	defer span.End()

	inst, t, data, rows, rowOffset, err := s.loadFeedRun(ctx, principal, wizardID)
	if err != nil {
		return nil, err
	}

	required := wizard.RequiredFields(t.Feed, data.Mode)
	results := &wizard.ValidationResults{TotalRows: len(rows)}
	invalid := make(map[int]bool)

	for start := 0; start < len(rows); start += FeedBatchSize {
		end := start + FeedBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		for i := start; i < end; i++ {
			fields := rowFields(data, rows[i])
			for _, f := range required {
				if fields[f.ID] == "" {
					invalid[i] = true
					if len(results.RowErrors) < maxStoredRowErrors {
						results.RowErrors = append(results.RowErrors, wizard.RowError{
							Row:     i + rowOffset,
							Field:   f.ID,
							Message: fmt.Sprintf("%s is required", f.Label),
						})
					}
				}
			}
		}
		if onProgress != nil {
			onProgress(Progress{Processed: end, Total: len(rows), Failures: len(invalid)})
		}
	}
	results.InvalidRows = len(invalid)

	data.ValidationResults = results
	if err := encodeInstanceData(inst, data); err != nil {
		return nil, err
	}
	if err := s.instRepo.Update(ctx, nil, inst); err != nil {
		return nil, err
	}
	s.log.Info("Feed validation finished",
		"wizard_id", wizardID, "total_rows", results.TotalRows, "invalid_rows", results.InvalidRows)
	return results, nil
}

func (s *feedService) Process(ctx context.Context, principal requestdata.Principal, wizardID uuid.UUID, onProgress OnProgress) (*wizard.ProcessResults, error) {
	ctx, span := otel.Tracer("feed").Start(ctx, "feed.process")
	defer span.End()

	inst, t, data, rows, rowOffset, err := s.loadFeedRun(ctx, principal, wizardID)
	if err != nil {
		return nil, err
	}
	if inst.Status == wizard.StatusCompleted || inst.Status == wizard.StatusNeedsReview {
		return nil, apierr.BadRequest(apierr.CodeInvalidTransition,
			fmt.Errorf("wizard %s has already been processed", wizardID))
	}
	if data.ValidationResults == nil || data.ValidationResults.InvalidRows != 0 {
		return nil, apierr.BadRequest(apierr.CodeStepIncomplete,
			fmt.Errorf("rows must pass validation before processing"))
	}
	applier, ok := s.appliers[t.Entity]
	if !ok {
		return nil, apierr.Internal(fmt.Errorf("no record applier for entity type %q", t.Entity))
	}

	mode := data.Mode
	if mode == "" {
		mode = wizard.ModeCreate
	}

	results := &wizard.ProcessResults{}
	outcomes := make([]string, len(rows))
	rowErrs := make([]string, len(rows))

	for start := 0; start < len(rows); start += FeedBatchSize {
		end := start + FeedBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		for i := start; i < end; i++ {
			results.CurrentRow = i + rowOffset
			fields := rowFields(data, rows[i])
			created, applyErr := applier.Apply(ctx, nil, mode, fields)
			results.Processed++
			if applyErr != nil {
				results.FailureCount++
				outcomes[i] = "failed"
				rowErrs[i] = applyErr.Error()
				if len(results.RowErrors) < maxStoredRowErrors {
					results.RowErrors = append(results.RowErrors, wizard.RowError{
						Row:     i + rowOffset,
						Message: applyErr.Error(),
					})
				}
				continue
			}
			results.SuccessCount++
			if created {
				results.CreatedCount++
				outcomes[i] = "created"
			} else {
				results.UpdatedCount++
				outcomes[i] = "updated"
			}
		}
		if onProgress != nil {
			onProgress(Progress{Processed: end, Total: len(rows), Failures: results.FailureCount})
		}
	}

	if fileID, err := s.storeResultsFile(ctx, inst, rows, outcomes, rowErrs, rowOffset); err != nil {
		s.log.Warn("Failed to store process results file", "error", err, "wizard_id", wizardID)
	} else {
		results.ResultsFileID = fileID
	}

	data.ProcessResults = results
	if inst.CurrentStep == wizard.StepProcess {
		if next, err := wizard.NewMachine(t).Advance(data, wizard.StepProcess, nil, nil); err == nil {
			inst.CurrentStep = next
		}
	}
	if results.FailureCount > 0 {
		inst.Status = wizard.StatusNeedsReview
	} else {
		inst.Status = wizard.StatusCompleted
	}
	if err := encodeInstanceData(inst, data); err != nil {
		return nil, err
	}
	if err := s.instRepo.Update(ctx, nil, inst); err != nil {
		return nil, err
	}
	s.log.Info("Feed processing finished",
		"wizard_id", wizardID,
		"processed", results.Processed,
		"created", results.CreatedCount,
		"updated", results.UpdatedCount,
		"failed", results.FailureCount,
		"status", inst.Status)
	return results, nil
}

// storeResultsFile writes a per-row outcome CSV back to the file store so
// the review step has something durable to show.
func (s *feedService) storeResultsFile(ctx context.Context, inst *types.WizardInstance, rows [][]string, outcomes, rowErrs []string, rowOffset int) (*uuid.UUID, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"row", "outcome", "error"}); err != nil {
		return nil, err
	}
	for i := range rows {
		if err := w.Write([]string{strconv.Itoa(i + rowOffset), outcomes[i], rowErrs[i]}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	sf, err := s.parser.Upload(ctx, inst.ID, inst.CreatedBy, "process_results.csv", MimeCSV, &buf, int64(buf.Len()))
	if err != nil {
		return nil, err
	}
	return &sf.ID, nil
}
