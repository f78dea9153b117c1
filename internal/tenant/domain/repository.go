package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrTenantNotFound = errors.New("tenant_not_found")
	ErrInvalidTenant  = errors.New("invalid_tenant")
)

// Directory enumerates tenants and resolves their tiers. The scheduled
// rollup and anomaly sweep iterate it; the usage ledger resolves tiers
// through it on the admission path.
type Directory interface {
	ListIDs(ctx context.Context) ([]snowflake.ID, error)
	ResolveTier(ctx context.Context, tenantID snowflake.ID) (Tier, error)
}
