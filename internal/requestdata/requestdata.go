package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// Principal is the resolved caller identity for the lifetime of a request.
type Principal struct {
	UserID  uuid.UUID
	IsAdmin bool
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}
