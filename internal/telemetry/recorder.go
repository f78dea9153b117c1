// Package telemetry writes fine-grained instrumentation metrics inline
// with request handling.
package telemetry

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SystonTigers/receptionist-sub000/internal/clock"
	"github.com/SystonTigers/receptionist-sub000/internal/metrickey"
	usagedomain "github.com/SystonTigers/receptionist-sub000/internal/usage/domain"
	"github.com/SystonTigers/receptionist-sub000/pkg/repository"
)

type RecorderParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

// Recorder appends one UsageMetric row per observation. Failures are the
// caller's to log; instrumentation must never fail the request it measures.
type Recorder struct {
	log *zap.Logger

	genID      *snowflake.Node
	clock      clock.Clock
	metricrepo repository.Repository[usagedomain.UsageMetric]
}

func NewRecorder(p RecorderParam) *Recorder {
	return &Recorder{
		log: p.Log.Named("telemetry.recorder"),

		genID:      p.GenID,
		clock:      p.Clock,
		metricrepo: repository.ProvideStore[usagedomain.UsageMetric](p.DB),
	}
}

// Record stores one observation of a series at the given instant. A zero
// instant takes the current time.
func (r *Recorder) Record(ctx context.Context, tenantID snowflake.ID, key metrickey.SeriesKey, value float64, at time.Time) error {
	if tenantID == 0 {
		return usagedomain.ErrInvalidTenant
	}
	if at.IsZero() {
		at = r.clock.Now()
	}

	return r.metricrepo.Create(ctx, &usagedomain.UsageMetric{
		ID:         r.genID.Generate(),
		TenantID:   tenantID,
		MetricKey:  key.Encode(),
		Value:      value,
		OccurredAt: at.UTC(),
	})
}
