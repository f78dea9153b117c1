package tracing

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// GinMiddleware opens a server span per request, continuing any trace
// propagated by the caller.
func GinMiddleware(serviceName string) gin.HandlerFunc {
	tracer := otel.Tracer(strings.TrimSpace(serviceName) + "/http")

	return func(c *gin.Context) {
		carrier := propagation.HeaderCarrier(c.Request.Header)
		ctx := ExtractContext(c.Request.Context(), carrier)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := tracer.Start(ctx,
			"HTTP "+c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
		)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(SafeAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)...)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, "server error")
			for _, ginErr := range c.Errors {
				if safeErr := SafeError(ginErr.Err); safeErr != nil {
					span.RecordError(safeErr)
				}
			}
		}
		span.End()
	}
}
