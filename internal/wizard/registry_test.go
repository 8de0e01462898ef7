package wizard

import (
	"errors"
	"testing"

	"github.com/benetrust/trustadmin-backend/internal/platform/apierr"
)

func TestNewRegistry_RejectsBadCatalogs(t *testing.T) {
	steps := []StepDef{{ID: "one", Label: "One"}}
	statuses := []string{StatusInProgress, StatusCompleted}

	cases := []struct {
		name    string
		catalog []Type
	}{
		{"empty name", []Type{{Steps: steps, Statuses: statuses}}},
		{"duplicate name", []Type{
			{Name: "a", Steps: steps, Statuses: statuses},
			{Name: "a", Steps: steps, Statuses: statuses},
		}},
		{"no steps", []Type{{Name: "a", Statuses: statuses}}},
		{"duplicate step id", []Type{{
			Name:     "a",
			Steps:    []StepDef{{ID: "one"}, {ID: "one"}},
			Statuses: statuses,
		}}},
		{"no statuses", []Type{{Name: "a", Steps: steps}}},
		{"monthly without group", []Type{{
			Name:     "a",
			Steps:    steps,
			Statuses: statuses,
			Monthly:  &MonthlySpec{Kind: MonthlyKindMonthly},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewRegistry(tc.catalog...); err == nil {
				t.Fatalf("expected constructor to reject catalog")
			}
		})
	}
}

func TestRegistry_GetUnknownType(t *testing.T) {
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	_, err = reg.Get("payroll_feed")
	if !apierr.Is(err, apierr.CodeTypeNotFound) {
		t.Fatalf("expected type_not_found, got %v", err)
	}
	if err := reg.ValidateType("payroll_feed"); err == nil {
		t.Fatalf("expected validation failure for unknown type")
	}
}

func TestRegistry_AllPreservesCatalogOrder(t *testing.T) {
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	catalog := DefaultCatalog()
	all := reg.All()
	if len(all) != len(catalog) {
		t.Fatalf("expected %d types, got %d", len(catalog), len(all))
	}
	for i, typ := range all {
		if typ.Name != catalog[i].Name {
			t.Fatalf("position %d: expected %q, got %q", i, catalog[i].Name, typ.Name)
		}
	}
}

func TestRegistry_FieldsForType(t *testing.T) {
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}

	fields, err := reg.FieldsForType("worker_feed")
	if err != nil {
		t.Fatalf("worker_feed fields: %v", err)
	}
	if len(fields) == 0 || fields[0].ID != "ssn" {
		t.Fatalf("unexpected worker_feed fields: %+v", fields)
	}

	_, err = reg.FieldsForType("worker_enrollment")
	if !errors.Is(err, ErrFieldsUnsupported) {
		t.Fatalf("expected ErrFieldsUnsupported for non-feed type, got %v", err)
	}
}

func TestRegistry_MonthlyGroupTypes(t *testing.T) {
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}

	monthly := reg.MonthlyGroupTypes("employer_remittance", MonthlyKindMonthly)
	if len(monthly) != 1 || monthly[0] != "employer_remittance" {
		t.Fatalf("unexpected monthly group members: %v", monthly)
	}
	corrections := reg.MonthlyGroupTypes("employer_remittance", MonthlyKindCorrections)
	if len(corrections) != 1 || corrections[0] != "employer_remittance_corrections" {
		t.Fatalf("unexpected corrections group members: %v", corrections)
	}
	if !reg.IsMonthlyWizard("employer_remittance") || reg.IsMonthlyWizard("employer_feed") {
		t.Fatalf("monthly capability misreported")
	}
}

func TestType_HasStatus(t *testing.T) {
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	typ, err := reg.Get("employer_feed")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !typ.HasStatus(StatusInProgress) || !typ.HasStatus(StatusCompleted) {
		t.Fatalf("base statuses should be accepted")
	}
	if !typ.HasStatus(StatusNeedsReview) {
		t.Fatalf("needs_review is always a valid status")
	}
	if typ.HasStatus("archived") {
		t.Fatalf("unknown status should be rejected")
	}
}
