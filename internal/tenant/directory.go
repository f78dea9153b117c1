// Package tenant implements the tenant directory against the relational store.
package tenant

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	tenantdomain "github.com/SystonTigers/receptionist-sub000/internal/tenant/domain"
)

type DirectoryParam struct {
	fx.In

	DB *gorm.DB
}

type directory struct {
	db *gorm.DB
}

// NewDirectory builds the gorm-backed tenant directory.
func NewDirectory(p DirectoryParam) tenantdomain.Directory {
	return &directory{db: p.DB}
}

func (d *directory) ListIDs(ctx context.Context) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := d.db.WithContext(ctx).Raw(
		`SELECT id FROM tenants ORDER BY id`,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (d *directory) ResolveTier(ctx context.Context, tenantID snowflake.ID) (tenantdomain.Tier, error) {
	if tenantID == 0 {
		return "", tenantdomain.ErrInvalidTenant
	}

	var tier tenantdomain.Tier
	err := d.db.WithContext(ctx).Raw(
		`SELECT tier FROM tenants WHERE id = ? LIMIT 1`,
		tenantID,
	).Scan(&tier).Error
	if err != nil {
		return "", err
	}
	if tier == "" {
		return "", tenantdomain.ErrTenantNotFound
	}
	return tier, nil
}
