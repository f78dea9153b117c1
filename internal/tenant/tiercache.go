package tenant

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"

	tenantdomain "github.com/SystonTigers/receptionist-sub000/internal/tenant/domain"
)

// TierCache memoizes tier lookups for the lifetime of one batch run. Each
// rollup or sweep invocation constructs its own cache and discards it when
// the run finishes, so a tier change is picked up on the next run at the
// latest. It is safe for concurrent use within the run.
type TierCache struct {
	directory tenantdomain.Directory

	mu    sync.Mutex
	tiers map[snowflake.ID]tenantdomain.Tier
}

// NewTierCache wraps a directory with run-scoped memoization.
func NewTierCache(directory tenantdomain.Directory) *TierCache {
	return &TierCache{
		directory: directory,
		tiers:     make(map[snowflake.ID]tenantdomain.Tier),
	}
}

// ResolveTier returns the cached tier, consulting the directory on a miss.
func (c *TierCache) ResolveTier(ctx context.Context, tenantID snowflake.ID) (tenantdomain.Tier, error) {
	c.mu.Lock()
	tier, ok := c.tiers[tenantID]
	c.mu.Unlock()
	if ok {
		return tier, nil
	}

	tier, err := c.directory.ResolveTier(ctx, tenantID)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.tiers[tenantID] = tier
	c.mu.Unlock()
	return tier, nil
}
