package policy

import (
	"context"

	"github.com/google/uuid"
)

// Policy names the engine evaluates.
const (
	WizardAccess = "wizard.access"
)

// Context is what a policy decision can see about the request.
type Context struct {
	UserID  uuid.UUID
	IsAdmin bool
	OwnerID uuid.UUID
}

type Decision struct {
	Granted bool
}

// Evaluator is the access-policy collaborator. The built-in evaluator only
// knows admin override and ownership; richer policies plug in behind the
// same interface.
type Evaluator interface {
	Evaluate(ctx context.Context, policyName string, pctx Context) Decision
}

type ownershipEvaluator struct{}

func NewOwnershipEvaluator() Evaluator { return ownershipEvaluator{} }

func (ownershipEvaluator) Evaluate(_ context.Context, policyName string, pctx Context) Decision {
	switch policyName {
	case WizardAccess:
		if pctx.IsAdmin {
			return Decision{Granted: true}
		}
		return Decision{Granted: pctx.UserID != uuid.Nil && pctx.UserID == pctx.OwnerID}
	default:
		return Decision{Granted: false}
	}
}
