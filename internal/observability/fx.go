// Package observability wires logging, metrics and tracing into the fx app.
package observability

import (
	"go.uber.org/fx"

	"github.com/SystonTigers/receptionist-sub000/internal/config"
	"github.com/SystonTigers/receptionist-sub000/internal/observability/logger"
	"github.com/SystonTigers/receptionist-sub000/internal/observability/metrics"
	"github.com/SystonTigers/receptionist-sub000/internal/observability/tracing"
)

var Module = fx.Module("observability",
	logger.Module,
	fx.Provide(
		NewMeterMetrics,
		NewTracingConfig,
		tracing.NewProvider,
	),
)

// NewMeterMetrics registers the process-wide prometheus collectors.
func NewMeterMetrics(cfg config.Config) *metrics.MeterMetrics {
	return metrics.MeterWithConfig(metrics.Config{
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})
}

// NewTracingConfig maps application configuration onto the tracer settings.
func NewTracingConfig(cfg config.Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.Observability.Tracing.Enabled,
		ServiceName:      cfg.App.Name,
		ServiceVersion:   cfg.App.Version,
		Environment:      cfg.App.Environment,
		ExporterEndpoint: cfg.Observability.Tracing.ExporterEndpoint,
		ExporterProtocol: cfg.Observability.Tracing.ExporterProtocol,
		SamplingRatio:    cfg.Observability.Tracing.SamplingRatio,
	}
}
