package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/SystonTigers/receptionist-sub000/internal/tenantcontext"
)

// GetObservabilitySummary returns the rolling-window traffic, latency and
// messaging report with any anomaly alerts.
func (s *Server) GetObservabilitySummary(c *gin.Context) {
	tenantID, ok := tenantcontext.TenantIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	summary, err := s.summarizer.Summarize(c.Request.Context(), snowflake.ID(tenantID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
