package logger

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	obscontext "github.com/SystonTigers/receptionist-sub000/internal/observability/context"
)

const requestIDHeader = "X-Request-Id"

// MiddlewareConfig tunes the request logging middleware.
type MiddlewareConfig struct {
	// SkipPaths suppresses the access log for noisy endpoints such as
	// health checks; the request ID header is still set.
	SkipPaths []string
}

// GinMiddleware assigns each request an ID, echoes it on the response and
// writes one access log line with masked headers.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = newRequestID()
		}
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Set("request_id", requestID)
		c.Request = c.Request.WithContext(
			obscontext.WithRequestID(c.Request.Context(), requestID),
		)

		start := time.Now()
		c.Next()

		if _, ok := skip[c.Request.URL.Path]; ok {
			return
		}

		FromContext(c.Request.Context()).Info("http request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("client_ip", c.ClientIP()),
			zap.Any("headers", MaskHeaders(c.Request.Header)),
		)
	}
}

func newRequestID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(buf[:])
}
