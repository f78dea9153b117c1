// Package tenantcontext carries the authenticated tenant identity through
// request contexts.
package tenantcontext

import "context"

type contextKey struct{}

// WithTenantID attaches a tenant ID to the context.
func WithTenantID(ctx context.Context, tenantID int64) context.Context {
	return context.WithValue(ctx, contextKey{}, tenantID)
}

// TenantIDFromContext returns the tenant ID attached by WithTenantID.
func TenantIDFromContext(ctx context.Context) (int64, bool) {
	value, ok := ctx.Value(contextKey{}).(int64)
	if !ok || value == 0 {
		return 0, false
	}
	return value, true
}
