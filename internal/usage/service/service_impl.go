package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SystonTigers/receptionist-sub000/internal/clock"
	"github.com/SystonTigers/receptionist-sub000/internal/observability/metrics"
	"github.com/SystonTigers/receptionist-sub000/internal/quota"
	tenantdomain "github.com/SystonTigers/receptionist-sub000/internal/tenant/domain"
	usagedomain "github.com/SystonTigers/receptionist-sub000/internal/usage/domain"
	"github.com/SystonTigers/receptionist-sub000/pkg/db/option"
	"github.com/SystonTigers/receptionist-sub000/pkg/repository"
)

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Directory tenantdomain.Directory
	Metrics   *metrics.MeterMetrics `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID     *snowflake.Node
	clock     clock.Clock
	directory tenantdomain.Directory
	usagerepo repository.Repository[usagedomain.UsageEvent]
	metrics   *metrics.MeterMetrics
}

func NewService(p ServiceParam) usagedomain.Ledger {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("usage.ledger"),

		genID:     p.GenID,
		clock:     p.Clock,
		directory: p.Directory,
		usagerepo: repository.ProvideStore[usagedomain.UsageEvent](p.DB),
		metrics:   p.Metrics,
	}
}

func (s *Service) CheckQuota(ctx context.Context, req usagedomain.RecordRequest) error {
	if req.TenantID == 0 {
		return usagedomain.ErrInvalidTenant
	}
	eventType := strings.TrimSpace(req.EventType)
	if eventType == "" {
		return usagedomain.ErrInvalidEventType
	}
	ref := req.OccurredAt
	if ref.IsZero() {
		ref = s.clock.Now()
	}

	tier, err := s.directory.ResolveTier(ctx, req.TenantID)
	if err != nil {
		return err
	}

	def, ok := quota.LimitsFor(string(tier))[eventType]
	if !ok || def.Unbounded() {
		return nil
	}

	candidate := usagedomain.UsageEvent{
		Quantity: normalizeQuantity(req.Quantity),
		Metadata: datatypes.JSONMap(req.Metadata),
	}
	amount := candidate.MeasuredQuantity(def.Measurement)

	used, err := s.PeriodUsage(ctx, req.TenantID, def, ref)
	if err != nil {
		return err
	}

	if used+amount > *def.Limit {
		s.metrics.IncQuotaDenied(eventType)
		return &quota.ExceededError{
			EventType: eventType,
			Limit:     *def.Limit,
			Used:      used,
			Attempted: amount,
		}
	}
	return nil
}

func (s *Service) RecordEvent(ctx context.Context, req usagedomain.RecordRequest) (*usagedomain.UsageEvent, error) {
	if req.TenantID == 0 {
		return nil, usagedomain.ErrInvalidTenant
	}
	eventType := strings.TrimSpace(req.EventType)
	if eventType == "" {
		return nil, usagedomain.ErrInvalidEventType
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.clock.Now()
	}

	record := &usagedomain.UsageEvent{
		ID:         s.genID.Generate(),
		TenantID:   req.TenantID,
		EventType:  eventType,
		Quantity:   normalizeQuantity(req.Quantity),
		OccurredAt: occurredAt.UTC(),
		CreatedAt:  s.clock.Now(),
	}
	if req.Metadata != nil {
		record.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.usagerepo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.metrics.IncUsageEvent(eventType)
	return record, nil
}

func (s *Service) PeriodUsage(ctx context.Context, tenantID snowflake.ID, def quota.Definition, ref time.Time) (float64, error) {
	periodStart := def.Period.Start(ref)

	events, err := s.usagerepo.Find(ctx,
		&usagedomain.UsageEvent{TenantID: tenantID, EventType: def.EventType},
		option.Where("occurred_at >= ?", periodStart),
	)
	if err != nil {
		return 0, err
	}

	var used float64
	for _, event := range events {
		used += event.MeasuredQuantity(def.Measurement)
	}
	return used, nil
}

// normalizeQuantity defaults missing or unusable quantities to one event.
func normalizeQuantity(quantity float64) float64 {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity <= 0 {
		return 1
	}
	return quantity
}
