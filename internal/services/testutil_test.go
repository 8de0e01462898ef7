package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
	"github.com/benetrust/trustadmin-backend/internal/platform/policy"
	"github.com/benetrust/trustadmin-backend/internal/platform/storage"
	"github.com/benetrust/trustadmin-backend/internal/repos"
	"github.com/benetrust/trustadmin-backend/internal/requestdata"
	"github.com/benetrust/trustadmin-backend/internal/types"
	"github.com/benetrust/trustadmin-backend/internal/wizard"
)

func nopLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)),
		&gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		},
	)
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.WizardInstance{},
		&types.FeedMapping{},
		&types.MonthlyRecurrenceLink{},
		&types.StoredFile{},
		&types.Employer{},
		&types.Worker{},
	); err != nil {
		t.Fatalf("migrating schema: %v", err)
	}
	return db
}

// testEnv wires the full service stack against an in-memory database and a
// temp-dir file store, the same shape main assembles in production.
type testEnv struct {
	db       *gorm.DB
	registry *wizard.Registry

	instRepo     repos.WizardInstanceRepo
	linkRepo     repos.MonthlyLinkRepo
	fileRepo     repos.StoredFileRepo
	employerRepo repos.EmployerRepo
	workerRepo   repos.WorkerRepo

	parser   ParserService
	wizards  WizardService
	feeds    FeedService
	mappings MappingService
	reports  ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	log := nopLogger()

	store, err := storage.NewLocalStore(t.TempDir(), log)
	if err != nil {
		t.Fatalf("creating local store: %v", err)
	}
	registry, err := wizard.DefaultRegistry()
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}

	instRepo := repos.NewWizardInstanceRepo(db, log)
	linkRepo := repos.NewMonthlyLinkRepo(db, log)
	fileRepo := repos.NewStoredFileRepo(db, log)
	mappingRepo := repos.NewFeedMappingRepo(db, log)
	employerRepo := repos.NewEmployerRepo(db, log)
	workerRepo := repos.NewWorkerRepo(db, log)

	parser := NewParserService(db, log, store, fileRepo, nil)
	eval := policy.NewOwnershipEvaluator()
	appliers := map[wizard.EntityType]RecordApplier{
		wizard.EntityEmployer: NewEmployerApplier(employerRepo),
		wizard.EntityWorker:   NewWorkerApplier(workerRepo),
	}

	return &testEnv{
		db:           db,
		registry:     registry,
		instRepo:     instRepo,
		linkRepo:     linkRepo,
		fileRepo:     fileRepo,
		employerRepo: employerRepo,
		workerRepo:   workerRepo,
		parser:       parser,
		wizards:      NewWizardService(db, log, registry, eval, instRepo, linkRepo, fileRepo, parser),
		feeds:        NewFeedService(db, log, registry, eval, instRepo, parser, appliers),
		mappings:     NewMappingService(db, log, mappingRepo),
		reports:      NewReportService(db, log, registry, eval, instRepo, employerRepo, parser),
	}
}

func testPrincipal() requestdata.Principal {
	return requestdata.Principal{UserID: uuid.New()}
}

func adminPrincipal() requestdata.Principal {
	return requestdata.Principal{UserID: uuid.New(), IsAdmin: true}
}

// uploadCSV stores csv content for the wizard and patches it onto the
// instance, the same two calls the upload endpoint makes.
func (e *testEnv) uploadCSV(t *testing.T, principal requestdata.Principal, wizardID uuid.UUID, content string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	sf, err := e.parser.Upload(ctx, wizardID, principal.UserID, "feed.csv", MimeCSV, strings.NewReader(content), int64(len(content)))
	if err != nil {
		t.Fatalf("uploading csv: %v", err)
	}
	if _, err := e.wizards.UpdateInstanceData(ctx, principal, wizardID, wizard.DataPatch{UploadedFileID: &sf.ID}); err != nil {
		t.Fatalf("patching uploaded file: %v", err)
	}
	return sf.ID
}
