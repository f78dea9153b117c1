// Package domain contains the tenant API key model and its hashing scheme.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/bwmarrin/snowflake"
)

// APIKey authenticates a tenant's backend services against the edge API.
// Only the hash is stored; the raw key is shown once at creation.
type APIKey struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	KeyHash   string       `gorm:"type:text;not null;uniqueIndex" json:"-"`
	Label     string       `gorm:"type:text" json:"label"`
	IsActive  bool         `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (APIKey) TableName() string { return "api_keys" }

// HashAPIKey derives the stored digest of a raw key.
func HashAPIKey(raw string) string {
	digest := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(digest[:])
}

// MaskAPIKey keeps only a short prefix of a raw key for log lines.
func MaskAPIKey(raw string) string {
	if len(raw) <= 6 {
		return "***"
	}
	return raw[:6] + "***"
}
