package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type testCleanupRequest struct {
	Prefix string `json:"prefix"`
}

// TestCleanup deletes tenants whose name matches a prefix together with
// their keys, events and metrics. Demo and load-test fixtures use prefixed
// names so suites can reset between runs. Not mounted in production.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.IsProduction() {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req testCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	prefix := strings.TrimSpace(req.Prefix)
	if prefix == "" {
		AbortWithError(c, newValidationError("prefix", "required", "prefix is required"))
		return
	}

	ctx := c.Request.Context()
	tenantIDs, err := s.loadTenantIDsByPrefix(ctx, prefix)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.deleteTenantData(ctx, tenantIDs); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "tenants_removed": len(tenantIDs)})
}

func (s *Server) loadTenantIDsByPrefix(ctx context.Context, prefix string) ([]int64, error) {
	like := strings.TrimSpace(prefix) + "%"
	var tenantIDs []int64
	if err := s.db.WithContext(ctx).
		Table("tenants").
		Select("id").
		Where("name LIKE ?", like).
		Scan(&tenantIDs).Error; err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

func (s *Server) deleteTenantData(ctx context.Context, tenantIDs []int64) error {
	if len(tenantIDs) == 0 {
		return nil
	}
	queries := []string{
		`DELETE FROM usage_metrics WHERE tenant_id IN ?`,
		`DELETE FROM usage_events WHERE tenant_id IN ?`,
		`DELETE FROM api_keys WHERE tenant_id IN ?`,
		`DELETE FROM tenants WHERE id IN ?`,
	}
	for _, query := range queries {
		if err := s.db.WithContext(ctx).Exec(query, tenantIDs).Error; err != nil {
			return err
		}
	}
	return nil
}
