// Package domain contains persistence models for usage metering.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	"github.com/SystonTigers/receptionist-sub000/internal/quota"
)

// MetadataTokenKey carries the token count of a completion call inside
// event metadata.
const MetadataTokenKey = "tokens"

// UsageEvent stores one successful metered action. Rows are append-only;
// only the rollup worker and ad-hoc quota sums read them back.
type UsageEvent struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID      `gorm:"not null;index:idx_usage_events_tenant_type_time" json:"tenant_id"`
	EventType  string            `gorm:"type:text;not null;index:idx_usage_events_tenant_type_time" json:"event_type"`
	Quantity   float64           `gorm:"not null;default:1" json:"quantity"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	OccurredAt time.Time         `gorm:"not null;index:idx_usage_events_tenant_type_time" json:"occurred_at"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (UsageEvent) TableName() string { return "usage_events" }

// MeasuredQuantity converts the event into the unit a quota counts in.
// Token-measured quotas read the metadata token count first, then fall back
// to the raw quantity, then to one. Event-measured quotas use the quantity,
// defaulting to one when it is missing or non-positive.
func (e UsageEvent) MeasuredQuantity(measurement quota.Measurement) float64 {
	if measurement == quota.MeasurementTokens {
		if tokens, ok := numericMetadata(e.Metadata, MetadataTokenKey); ok && tokens >= 0 {
			return tokens
		}
	}
	if e.Quantity > 0 {
		return e.Quantity
	}
	return 1
}

func numericMetadata(metadata datatypes.JSONMap, key string) (float64, bool) {
	if metadata == nil {
		return 0, false
	}
	switch value := metadata[key].(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	default:
		return 0, false
	}
}

// UsageMetric is a time-stamped numeric observation. Fine-grained rows are
// written inline by request instrumentation; coarse rows are written by the
// rollup worker with OccurredAt set to the period start and upserted on
// (tenant_id, metric_key, occurred_at) so reruns overwrite instead of
// duplicating.
type UsageMetric struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID `gorm:"not null;uniqueIndex:idx_usage_metrics_tenant_key_time" json:"tenant_id"`
	MetricKey  string       `gorm:"type:text;not null;uniqueIndex:idx_usage_metrics_tenant_key_time" json:"metric_key"`
	Value      float64      `gorm:"not null" json:"value"`
	OccurredAt time.Time    `gorm:"not null;uniqueIndex:idx_usage_metrics_tenant_key_time" json:"occurred_at"`
}

// TableName sets the database table name.
func (UsageMetric) TableName() string { return "usage_metrics" }
