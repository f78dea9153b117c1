// Package sweep evaluates every tenant's observability series on a
// schedule and surfaces graded alerts to operators.
package sweep

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SystonTigers/receptionist-sub000/internal/clock"
	"github.com/SystonTigers/receptionist-sub000/internal/insight"
	"github.com/SystonTigers/receptionist-sub000/internal/insight/anomaly"
	"github.com/SystonTigers/receptionist-sub000/internal/observability/metrics"
	tenantdomain "github.com/SystonTigers/receptionist-sub000/internal/tenant/domain"
)

const jobName = "anomaly_sweep"

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Directory  tenantdomain.Directory
	Summarizer *insight.Summarizer
	Metrics    *metrics.MeterMetrics `optional:"true"`
	Config     Config                `optional:"true"`
}

type Worker struct {
	log *zap.Logger

	clock      clock.Clock
	directory  tenantdomain.Directory
	summarizer *insight.Summarizer
	metrics    *metrics.MeterMetrics
	cfg        Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		log: p.Log.Named("insight.sweep"),

		clock:      p.Clock,
		directory:  p.Directory,
		summarizer: p.Summarizer,
		metrics:    p.Metrics,
		cfg:        p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("anomaly sweep run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce walks all tenants with bounded concurrency. A tenant that fails
// to summarize is logged and counted; it never cancels the others, so the
// group collects no error from tenant work.
func (w *Worker) RunOnce(ctx context.Context) error {
	started := w.clock.Now()

	tenants, err := w.directory.ListIDs(ctx)
	if err != nil {
		w.metrics.IncWorkerRun(jobName, "failed")
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(w.cfg.Concurrency)
	for _, tenantID := range tenants {
		group.Go(func() error {
			w.sweepTenant(groupCtx, tenantID)
			return nil
		})
	}
	_ = group.Wait()

	w.metrics.IncWorkerRun(jobName, "success")
	w.metrics.ObserveWorkerDuration(jobName, w.clock.Now().Sub(started))
	return nil
}

func (w *Worker) sweepTenant(ctx context.Context, tenantID snowflake.ID) {
	summary, err := w.summarizer.Summarize(ctx, tenantID)
	if err != nil {
		w.metrics.IncTenantFailure(jobName)
		w.log.Warn("tenant sweep failed",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		return
	}

	for _, alert := range summary.Alerts {
		w.metrics.IncSweepAlert(string(alert.Severity))

		fields := []zap.Field{
			zap.String("tenant_id", tenantID.String()),
			zap.String("alert_id", alert.ID),
			zap.String("metric", alert.Metric),
			zap.Float64("value", alert.Value),
			zap.String("severity", string(alert.Severity)),
			zap.String("description", alert.Description),
		}
		if alert.Baseline != nil {
			fields = append(fields, zap.Float64("baseline", *alert.Baseline))
		}

		if alert.Severity == anomaly.SeverityCritical {
			w.log.Error("anomaly detected", fields...)
		} else {
			w.log.Warn("anomaly detected", fields...)
		}
	}
}
