package tenant

import (
	"context"
)

// FallbackID is handed to collaborators that insist on a non-empty tenant
// string when no tenant was asserted on the request. It must never be used
// as a fan-out or data-isolation key; check Asserted instead.
const FallbackID = "default-tenant"

// Context carries the tenant resolved for a single request or connection.
// It is never persisted beyond the request lifetime.
type Context struct {
	TenantID string
	Asserted bool
}

// BroadcastKey returns the tenant tag used to scope fan-out. Connections
// without an asserted tenant get the empty tag and only receive untargeted
// broadcasts.
func (c Context) BroadcastKey() string {
	if !c.Asserted {
		return ""
	}

	return c.TenantID
}

// StorageID returns a non-empty tenant identifier for storage key paths.
func (c Context) StorageID() string {
	if !c.Asserted {
		return FallbackID
	}

	return c.TenantID
}

type contextKey string

const tenantContextKey contextKey = "tenant"

func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, tenantContextKey, tc)
}

func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(tenantContextKey).(Context)

	return tc, ok
}
