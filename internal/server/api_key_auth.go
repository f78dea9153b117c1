package server

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apikeydomain "github.com/SystonTigers/receptionist-sub000/internal/apikey/domain"
	"github.com/SystonTigers/receptionist-sub000/internal/observability/logger"
	"github.com/SystonTigers/receptionist-sub000/internal/tenantcontext"
)

const (
	contextAuthTypeKey = "auth_type"
	contextTenantIDKey = "tenant_id"

	authCacheTTL = 30 * time.Second
)

// APIKeyRequired authenticates requests with a bearer API key. Tenant
// identity is derived solely from the api_keys table; verified lookups are
// cached briefly to keep the ingest hot path off the database.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		rawKey := parts[1]
		hash := apikeydomain.HashAPIKey(rawKey)

		entry, ok := s.authCache.Get(hash)
		if !ok {
			record, err := s.lookupAPIKey(c, hash)
			if err != nil {
				AbortWithError(c, err)
				return
			}
			if record.ID == 0 || subtle.ConstantTimeCompare([]byte(record.KeyHash), []byte(hash)) != 1 {
				logger.FromContext(c.Request.Context()).Warn("api key rejected",
					zap.String("api_key", apikeydomain.MaskAPIKey(rawKey)),
					zap.String("client_ip", c.ClientIP()),
				)
				AbortWithError(c, ErrUnauthorized)
				return
			}
			entry = authCacheEntry{tenantID: int64(record.TenantID), keyHash: record.KeyHash}
			s.authCache.Set(hash, entry, authCacheTTL)
		}

		ctx := c.Request.Context()
		ctx = tenantcontext.WithTenantID(ctx, entry.tenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextAuthTypeKey, "api_key")
		c.Set(contextTenantIDKey, entry.tenantID)
		c.Next()
	}
}

type apiKeyRecord struct {
	ID       snowflake.ID `gorm:"column:id"`
	TenantID snowflake.ID `gorm:"column:tenant_id"`
	KeyHash  string       `gorm:"column:key_hash"`
}

func (s *Server) lookupAPIKey(c *gin.Context, hash string) (apiKeyRecord, error) {
	now := time.Now().UTC()

	var record apiKeyRecord
	err := s.db.WithContext(c.Request.Context()).Raw(
		`SELECT id, tenant_id, key_hash
		 FROM api_keys
		 WHERE key_hash = ?
		   AND is_active = true
		   AND (expires_at IS NULL OR expires_at > ?)
		 LIMIT 1`,
		hash,
		now,
	).Scan(&record).Error
	return record, err
}

// RateLimited applies the per-tenant request budget after authentication.
func (s *Server) RateLimited() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantcontext.TenantIDFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !s.limiter.Allow(snowflake.ID(tenantID).String()) {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
