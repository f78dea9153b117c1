package context

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// RequestIDFromGin reads the correlation ID from the request context, falling
// back to the gin key set by the logging middleware.
func RequestIDFromGin(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if ctx := c.Request.Context(); ctx != nil {
		if value := RequestIDFromContext(ctx); value != "" {
			return value
		}
	}
	return strings.TrimSpace(c.GetString("request_id"))
}
