// Package tenant carries the resolved tenant through request context.
// Resolution itself (auth, slug lookup) happens upstream; every repository
// in this module requires a tenant-bound context and scopes all SQL by it.
package tenant

import (
	"context"
	"errors"
)

// Tenant identifies a single store. ID is the stable key used in all
// persisted rows; Slug is the human-facing identifier.
type Tenant struct {
	ID   string
	Slug string
}

type ctxKey int

const tenantKey ctxKey = iota

// ErrNoTenantInContext is returned when a tenant-scoped operation runs
// without a tenant bound to the context.
var ErrNoTenantInContext = errors.New("tenant not found in context")

// With stores tenant info in context.
func With(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

// Get retrieves tenant from context, nil if absent.
func Get(ctx context.Context) *Tenant {
	t, _ := ctx.Value(tenantKey).(*Tenant)
	return t
}

// GetID returns tenant ID or empty string.
func GetID(ctx context.Context) string {
	if t := Get(ctx); t != nil {
		return t.ID
	}
	return ""
}

// MustGetID returns tenant ID or panics.
// Use in repositories where an unbound context is a programming error
// (missing tenant middleware), never a recoverable condition.
func MustGetID(ctx context.Context) string {
	t := Get(ctx)
	if t == nil || t.ID == "" {
		panic("tenant not in context: " + ErrNoTenantInContext.Error())
	}
	return t.ID
}
