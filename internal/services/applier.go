package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/benetrust/trustadmin-backend/internal/repos"
	"github.com/benetrust/trustadmin-backend/internal/types"
	"github.com/benetrust/trustadmin-backend/internal/wizard"
)

// RecordApplier is the record-store boundary the feed pipeline writes
// through: one implementation per target entity type. Apply handles a single
// row's mapped fields and reports whether it created a record.
type RecordApplier interface {
	Apply(ctx context.Context, tx *gorm.DB, mode string, fields map[string]string) (created bool, err error)
}

type employerApplier struct {
	repo repos.EmployerRepo
}

func NewEmployerApplier(repo repos.EmployerRepo) RecordApplier {
	return &employerApplier{repo: repo}
}

func (a *employerApplier) Apply(ctx context.Context, tx *gorm.DB, mode string, fields map[string]string) (bool, error) {
	number := fields["number"]
	if number == "" {
		return false, fmt.Errorf("employer number is empty")
	}
	existing, err := a.repo.GetByNumber(ctx, tx, number)
	if err != nil {
		return false, err
	}

	switch mode {
	case wizard.ModeCreate:
		if existing != nil {
			return false, fmt.Errorf("employer %q already exists", number)
		}
		employer := &types.Employer{
			ID:      uuid.New(),
			Number:  number,
			Name:    fields["name"],
			EIN:     fields["ein"],
			Address: fields["address"],
			City:    fields["city"],
			State:   fields["state"],
			Zip:     fields["zip"],
			Phone:   fields["phone"],
			Email:   fields["email"],
		}
		return true, a.repo.Create(ctx, tx, employer)
	case wizard.ModeUpdate:
		if existing == nil {
			return false, fmt.Errorf("employer %q not found", number)
		}
		updates := columnUpdates(fields, "number")
		if len(updates) == 0 {
			return false, nil
		}
		return false, a.repo.UpdateByNumber(ctx, tx, number, updates)
	default:
		return false, fmt.Errorf("unknown mode %q", mode)
	}
}

type workerApplier struct {
	repo repos.WorkerRepo
}

func NewWorkerApplier(repo repos.WorkerRepo) RecordApplier {
	return &workerApplier{repo: repo}
}

func (a *workerApplier) Apply(ctx context.Context, tx *gorm.DB, mode string, fields map[string]string) (bool, error) {
	ssn := fields["ssn"]
	if ssn == "" {
		return false, fmt.Errorf("ssn is empty")
	}
	existing, err := a.repo.GetBySSN(ctx, tx, ssn)
	if err != nil {
		return false, err
	}

	switch mode {
	case wizard.ModeCreate:
		if existing != nil {
			return false, fmt.Errorf("worker with this ssn already exists")
		}
		worker := &types.Worker{
			ID:             uuid.New(),
			SSN:            ssn,
			FirstName:      fields["first_name"],
			LastName:       fields["last_name"],
			BirthDate:      fields["birth_date"],
			EmployerNumber: fields["employer_number"],
			Address:        fields["address"],
			City:           fields["city"],
			State:          fields["state"],
			Zip:            fields["zip"],
			Phone:          fields["phone"],
			Email:          fields["email"],
		}
		return true, a.repo.Create(ctx, tx, worker)
	case wizard.ModeUpdate:
		if existing == nil {
			return false, fmt.Errorf("no worker with this ssn")
		}
		updates := columnUpdates(fields, "ssn")
		if len(updates) == 0 {
			return false, nil
		}
		return false, a.repo.UpdateBySSN(ctx, tx, ssn, updates)
	default:
		return false, fmt.Errorf("unknown mode %q", mode)
	}
}

// columnUpdates turns mapped field values into a gorm updates map, skipping
// the key field itself.
func columnUpdates(fields map[string]string, keyField string) map[string]interface{} {
	updates := make(map[string]interface{}, len(fields))
	for id, val := range fields {
		if id == keyField {
			continue
		}
		updates[id] = val
	}
	return updates
}
