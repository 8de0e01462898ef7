package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/benetrust/trustadmin-backend/internal/platform/apierr"
	"github.com/benetrust/trustadmin-backend/internal/types"
)

func seedEmployers(t *testing.T, env *testEnv, n int) {
	t.Helper()
	ctx := context.Background()
	names := []string{"Acme", "Globex", "Initech", "Hooli"}
	for i := 0; i < n; i++ {
		if err := env.employerRepo.Create(ctx, nil, &types.Employer{
			ID:     uuid.New(),
			Number: string(rune('1'+i)) + "00",
			Name:   names[i%len(names)],
			EIN:    "12-3456789",
			City:   "Springfield",
			State:  "IL",
		}); err != nil {
			t.Fatalf("seeding employer %d: %v", i, err)
		}
	}
}

func TestReportColumns(t *testing.T) {
	env := newTestEnv(t)

	cols, err := env.reports.Columns("employer_roster_report")
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	if len(cols) == 0 || cols[0].ID != "number" {
		t.Fatalf("unexpected columns: %+v", cols)
	}

	_, err = env.reports.Columns("employer_feed")
	if !apierr.Is(err, apierr.CodeInvalidArgument) {
		t.Fatalf("expected invalid_argument for non-report type, got %v", err)
	}
}

func TestGenerate_RosterReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	principal := testPrincipal()
	seedEmployers(t, env, 3)

	inst, err := env.wizards.CreateInstance(ctx, principal, CreateInstanceRequest{Type: "employer_roster_report"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var progresses []Progress
	results, err := env.reports.Generate(ctx, principal, inst.ID, func(p Progress) { progresses = append(progresses, p) })
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if results.RowCount != 3 || results.ResultsFileID == nil {
		t.Fatalf("unexpected results: %+v", results)
	}
	if len(progresses) != 1 || progresses[0].Processed != 3 || progresses[0].Total != 3 {
		t.Fatalf("expected a single completion progress, got %+v", progresses)
	}

	rows, err := env.reports.GetResults(ctx, principal, inst.ID)
	if err != nil {
		t.Fatalf("get results: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Employer Number" || rows[0][1] != "Name" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	// ListAll orders by employer number.
	if rows[1][0] != "100" || rows[1][1] != "Acme" || rows[2][0] != "200" {
		t.Fatalf("unexpected report rows: %v", rows[1:])
	}
}

func TestGenerate_RejectsNonReportType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	principal := testPrincipal()

	inst, err := env.wizards.CreateInstance(ctx, principal, CreateInstanceRequest{Type: "employer_feed"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = env.reports.Generate(ctx, principal, inst.ID, nil)
	if !apierr.Is(err, apierr.CodeInvalidArgument) {
		t.Fatalf("expected invalid_argument, got %v", err)
	}
}

func TestGetResults_BeforeGenerate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	principal := testPrincipal()

	inst, err := env.wizards.CreateInstance(ctx, principal, CreateInstanceRequest{Type: "employer_roster_report"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = env.reports.GetResults(ctx, principal, inst.ID)
	if !apierr.Is(err, apierr.CodeNotFound) {
		t.Fatalf("expected not_found before generation, got %v", err)
	}
}
