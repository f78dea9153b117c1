package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/SystonTigers/receptionist-sub000/internal/tenantcontext"
)

// GetUsageOverview returns the tier quotas with current-period consumption
// plus recent metric rows for the dashboard.
func (s *Server) GetUsageOverview(c *gin.Context) {
	tenantID, ok := tenantcontext.TenantIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	report, err := s.overview.BuildOverview(c.Request.Context(), snowflake.ID(tenantID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
