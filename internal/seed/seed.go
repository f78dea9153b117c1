// Package seed bootstraps a demo tenant for local development.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apikeydomain "github.com/SystonTigers/receptionist-sub000/internal/apikey/domain"
	tenantdomain "github.com/SystonTigers/receptionist-sub000/internal/tenant/domain"
)

const (
	defaultTenantName = "Demo Salon"
	defaultTenantSlug = "demo"
	defaultKeyLabel   = "local development"

	// DemoAPIKey is the raw bearer key seeded for local development only.
	// The seed never runs in production.
	DemoAPIKey = "rcp_demo_local_key"
)

// EnsureDefaultTenant creates the demo tenant with a starter tier and one
// active API key when they do not exist yet.
func EnsureDefaultTenant(db *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenant, err := ensureTenantTx(ctx, tx, node)
		if err != nil {
			return err
		}

		hash := apikeydomain.HashAPIKey(DemoAPIKey)
		var key apikeydomain.APIKey
		err = tx.WithContext(ctx).Where("key_hash = ?", hash).First(&key).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		key = apikeydomain.APIKey{
			ID:        node.Generate(),
			TenantID:  tenant.ID,
			KeyHash:   hash,
			Label:     defaultKeyLabel,
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.WithContext(ctx).Create(&key).Error; err != nil {
			return err
		}

		log.Info("demo tenant seeded",
			zap.String("tenant", defaultTenantSlug),
			zap.String("api_key", apikeydomain.MaskAPIKey(DemoAPIKey)),
		)
		return nil
	})
}

func ensureTenantTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (tenantdomain.Tenant, error) {
	var tenant tenantdomain.Tenant
	err := tx.WithContext(ctx).Where("slug = ?", defaultTenantSlug).First(&tenant).Error
	if err == nil {
		return tenant, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return tenant, err
	}

	now := time.Now().UTC()
	tenant = tenantdomain.Tenant{
		ID:        node.Generate(),
		Name:      defaultTenantName,
		Slug:      defaultTenantSlug,
		Tier:      tenantdomain.TierStarter,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&tenant).Error; err != nil {
		return tenant, err
	}
	return tenant, nil
}
