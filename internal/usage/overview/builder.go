// Package overview assembles the per-tenant quota-vs-consumption report
// served to the dashboard.
package overview

import (
	"context"
	"sort"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SystonTigers/receptionist-sub000/internal/clock"
	"github.com/SystonTigers/receptionist-sub000/internal/quota"
	tenantdomain "github.com/SystonTigers/receptionist-sub000/internal/tenant/domain"
	usagedomain "github.com/SystonTigers/receptionist-sub000/internal/usage/domain"
	"github.com/SystonTigers/receptionist-sub000/pkg/db/option"
	"github.com/SystonTigers/receptionist-sub000/pkg/repository"
)

// RecentMetricCount caps the raw metric rows returned for trend display.
const RecentMetricCount = 50

// QuotaStatus reports one quota definition with current-period consumption.
// Remaining is nil when the quota is unbounded, otherwise clamped at zero.
type QuotaStatus struct {
	EventType   string            `json:"event_type"`
	Label       string            `json:"label"`
	Period      quota.Period      `json:"period"`
	Measurement quota.Measurement `json:"measurement"`
	Limit       *float64          `json:"limit"`
	Used        float64           `json:"used"`
	Remaining   *float64          `json:"remaining"`
}

// Overview is the dashboard payload for one tenant.
type Overview struct {
	Tier          tenantdomain.Tier         `json:"tier"`
	Quotas        []QuotaStatus             `json:"quotas"`
	RecentMetrics []usagedomain.UsageMetric `json:"recent_metrics"`
}

type BuilderParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Directory tenantdomain.Directory
	Ledger    usagedomain.Ledger
}

type Builder struct {
	log *zap.Logger

	clock      clock.Clock
	directory  tenantdomain.Directory
	ledger     usagedomain.Ledger
	metricrepo repository.Repository[usagedomain.UsageMetric]
}

func NewBuilder(p BuilderParam) *Builder {
	return &Builder{
		log: p.Log.Named("usage.overview"),

		clock:      p.Clock,
		directory:  p.Directory,
		ledger:     p.Ledger,
		metricrepo: repository.ProvideStore[usagedomain.UsageMetric](p.DB),
	}
}

// BuildOverview is read-only and side-effect free.
func (b *Builder) BuildOverview(ctx context.Context, tenantID snowflake.ID) (Overview, error) {
	if tenantID == 0 {
		return Overview{}, usagedomain.ErrInvalidTenant
	}

	tier, err := b.directory.ResolveTier(ctx, tenantID)
	if err != nil {
		return Overview{}, err
	}

	now := b.clock.Now()
	definitions := quota.LimitsFor(string(tier))

	quotas := make([]QuotaStatus, 0, len(definitions))
	for _, def := range definitions {
		used, err := b.ledger.PeriodUsage(ctx, tenantID, def, now)
		if err != nil {
			return Overview{}, err
		}

		status := QuotaStatus{
			EventType:   def.EventType,
			Label:       def.Label,
			Period:      def.Period,
			Measurement: def.Measurement,
			Limit:       def.Limit,
			Used:        used,
		}
		if def.Limit != nil {
			remaining := *def.Limit - used
			if remaining < 0 {
				remaining = 0
			}
			status.Remaining = &remaining
		}
		quotas = append(quotas, status)
	}
	sort.Slice(quotas, func(i, j int) bool { return quotas[i].EventType < quotas[j].EventType })

	rows, err := b.metricrepo.Find(ctx,
		&usagedomain.UsageMetric{TenantID: tenantID},
		option.OrderDesc("occurred_at"),
		option.Limit(RecentMetricCount),
	)
	if err != nil {
		return Overview{}, err
	}

	recent := make([]usagedomain.UsageMetric, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		recent = append(recent, *row)
	}

	return Overview{
		Tier:          tier,
		Quotas:        quotas,
		RecentMetrics: recent,
	}, nil
}
