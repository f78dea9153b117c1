// Package logger provides the shared zap logger and request logging
// middleware.
package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/SystonTigers/receptionist-sub000/internal/config"
	obscontext "github.com/SystonTigers/receptionist-sub000/internal/observability/context"
)

var Module = fx.Module("logger",
	fx.Provide(NewLogger),
)

// NewLogger builds the process logger and installs it as the zap global.
func NewLogger(lc fx.Lifecycle, cfg config.Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(cfg.Observability.Logging.Level); err == nil {
		level = parsed
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.InitialFields = map[string]any{
		"service": cfg.App.Name,
		"env":     cfg.App.Environment,
	}

	log, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
	return log, nil
}

// FromContext returns the global logger enriched with the request ID and the
// active trace and span IDs when the context carries them.
func FromContext(ctx context.Context) *zap.Logger {
	log := zap.L()
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		log = log.With(zap.String("request_id", requestID))
	}
	span := trace.SpanContextFromContext(ctx)
	if !span.IsValid() {
		return log
	}
	return log.With(
		zap.String("trace_id", span.TraceID().String()),
		zap.String("span_id", span.SpanID().String()),
	)
}
