// Package domain contains the tenant record and tier enumeration.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Tier is the service level a tenant subscribes to. It selects the quota
// table applied to the tenant's metered actions.
type Tier string

const (
	TierStarter  Tier = "starter"
	TierStandard Tier = "standard"
	TierPro      Tier = "pro"
)

// Valid reports whether the tier is one of the configured levels.
func (t Tier) Valid() bool {
	switch t {
	case TierStarter, TierStandard, TierPro:
		return true
	default:
		return false
	}
}

// Tenant is an isolated salon account. All metering is scoped to one tenant.
type Tenant struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Slug      string       `gorm:"type:text;not null;uniqueIndex" json:"slug"`
	Tier      Tier         `gorm:"type:text;not null;default:starter" json:"tier"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }
