package telemetry

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SystonTigers/receptionist-sub000/internal/metrickey"
	"github.com/SystonTigers/receptionist-sub000/internal/tenantcontext"
)

// GinMiddleware records per-request instrumentation rows for authenticated
// tenants: a request count, an error count on 5xx responses and the request
// latency in milliseconds. Write failures are logged and swallowed.
func GinMiddleware(recorder *Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if recorder == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		tenantID, ok := tenantcontext.TenantIDFromContext(ctx)
		if !ok {
			return
		}

		now := recorder.clock.Now()
		elapsedMS := float64(time.Since(start).Microseconds()) / 1000

		record := func(key metrickey.SeriesKey, value float64) {
			if err := recorder.Record(ctx, snowflake.ID(tenantID), key, value, now); err != nil {
				recorder.log.Debug("instrumentation write failed",
					zap.String("metric", key.Encode()),
					zap.Error(err),
				)
			}
		}

		record(metrickey.SeriesKey{Name: metrickey.SeriesHTTPRequests}, 1)
		if c.Writer.Status() >= 500 {
			record(metrickey.SeriesKey{Name: metrickey.SeriesHTTPErrors}, 1)
		}
		record(metrickey.SeriesKey{Name: metrickey.SeriesHTTPLatencyMS}, elapsedMS)
	}
}
