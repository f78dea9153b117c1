// Package rollup periodically folds raw usage events into per-tenant,
// per-period summary metrics.
package rollup

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SystonTigers/receptionist-sub000/internal/clock"
	"github.com/SystonTigers/receptionist-sub000/internal/metrickey"
	"github.com/SystonTigers/receptionist-sub000/internal/observability/metrics"
	"github.com/SystonTigers/receptionist-sub000/internal/quota"
	"github.com/SystonTigers/receptionist-sub000/internal/tenant"
	tenantdomain "github.com/SystonTigers/receptionist-sub000/internal/tenant/domain"
	usagedomain "github.com/SystonTigers/receptionist-sub000/internal/usage/domain"
	"github.com/SystonTigers/receptionist-sub000/pkg/db/option"
	"github.com/SystonTigers/receptionist-sub000/pkg/repository"
)

// Dimensions distinguishing the two rollup granularities in metric keys.
const (
	DimensionMonth = "month"
	DimensionDay   = "day"
)

const jobName = "rollup"

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Directory tenantdomain.Directory
	Metrics   *metrics.MeterMetrics `optional:"true"`
	Config    Config                `optional:"true"`
}

type Worker struct {
	db  *gorm.DB
	log *zap.Logger

	genID     *snowflake.Node
	clock     clock.Clock
	directory tenantdomain.Directory
	usagerepo repository.Repository[usagedomain.UsageEvent]
	metrics   *metrics.MeterMetrics
	cfg       Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		db:  p.DB,
		log: p.Log.Named("usage.rollup"),

		genID:     p.GenID,
		clock:     p.Clock,
		directory: p.Directory,
		usagerepo: repository.ProvideStore[usagedomain.UsageEvent](p.DB),
		metrics:   p.Metrics,
		cfg:       p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("usage rollup run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce rolls up every tenant. One tenant failing is logged and skipped;
// it never aborts the rest of the run.
func (w *Worker) RunOnce(ctx context.Context) error {
	started := w.clock.Now()

	tenants, err := w.directory.ListIDs(ctx)
	if err != nil {
		w.metrics.IncWorkerRun(jobName, "failed")
		return err
	}

	tiers := tenant.NewTierCache(w.directory)
	for _, tenantID := range tenants {
		if err := w.rollupTenant(ctx, tiers, tenantID); err != nil {
			w.metrics.IncTenantFailure(jobName)
			w.log.Warn("tenant rollup failed",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		}
	}

	w.metrics.IncWorkerRun(jobName, "success")
	w.metrics.ObserveWorkerDuration(jobName, w.clock.Now().Sub(started))
	return nil
}

func (w *Worker) rollupTenant(ctx context.Context, tiers *tenant.TierCache, tenantID snowflake.ID) error {
	tier, err := tiers.ResolveTier(ctx, tenantID)
	if err != nil {
		return err
	}
	definitions := quota.LimitsFor(string(tier))

	now := w.clock.Now()
	monthStart := quota.PeriodMonth.Start(now)
	dayStart := quota.PeriodDay.Start(now)

	events, err := w.usagerepo.Find(ctx,
		&usagedomain.UsageEvent{TenantID: tenantID},
		option.Where("occurred_at >= ?", monthStart),
	)
	if err != nil {
		return err
	}

	monthTotals := make(map[string]float64)
	dayTotals := make(map[string]float64)
	for _, event := range events {
		measurement := quota.MeasurementEvents
		if def, ok := definitions[event.EventType]; ok {
			measurement = def.Measurement
		}
		measured := event.MeasuredQuantity(measurement)

		monthTotals[event.EventType] += measured
		if !event.OccurredAt.Before(dayStart) {
			dayTotals[event.EventType] += measured
		}
	}

	for _, eventType := range sortedKeys(monthTotals) {
		key := metrickey.SeriesKey{Name: "usage." + eventType, Dimension: DimensionMonth}
		if err := w.upsertMetric(ctx, tenantID, key, monthTotals[eventType], monthStart); err != nil {
			return err
		}

		key.Dimension = DimensionDay
		if err := w.upsertMetric(ctx, tenantID, key, dayTotals[eventType], dayStart); err != nil {
			return err
		}
	}
	return nil
}

// upsertMetric is keyed on (tenant, metric key, period start) so a rerun for
// the same period overwrites the previous total instead of inflating it.
func (w *Worker) upsertMetric(ctx context.Context, tenantID snowflake.ID, key metrickey.SeriesKey, value float64, periodStart time.Time) error {
	return w.db.WithContext(ctx).Exec(
		`INSERT INTO usage_metrics (id, tenant_id, metric_key, value, occurred_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (tenant_id, metric_key, occurred_at) DO UPDATE SET value = excluded.value`,
		w.genID.Generate(),
		tenantID,
		key.Encode(),
		value,
		periodStart,
	).Error
}

func sortedKeys(totals map[string]float64) []string {
	keys := make([]string, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
