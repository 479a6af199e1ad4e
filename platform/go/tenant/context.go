package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Identity captures the resolved tenant for a request. It is attached to the
// context by middleware once the tenant header has been verified against the
// tenant registry.
type Identity struct {
	TenantID uuid.UUID
	Slug     string
	Name     string
}

type ctxKey struct{}

// WithIdentity returns a derived context carrying the tenant Identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the tenant Identity and a boolean indicating presence.
func FromContext(ctx context.Context) (Identity, bool) {
	v := ctx.Value(ctxKey{})
	if v == nil {
		return Identity{}, false
	}

	id, ok := v.(Identity)
	return id, ok
}
