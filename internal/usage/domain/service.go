package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/SystonTigers/receptionist-sub000/internal/quota"
)

var (
	ErrInvalidTenant    = errors.New("invalid_tenant")
	ErrInvalidEventType = errors.New("invalid_event_type")
)

// RecordRequest describes one metered action to append to the ledger.
type RecordRequest struct {
	TenantID   snowflake.ID
	EventType  string
	Quantity   float64
	Metadata   map[string]any
	OccurredAt time.Time
}

// Ledger gates metered actions and records the ones that went through.
//
// CheckQuota must complete before the metered side effect runs. It is
// advisory: two concurrent requests can both observe usage below the limit
// and overshoot it by at most the smaller requested amount. That window is
// accepted; there is no distributed lock around check-act-record.
type Ledger interface {
	// CheckQuota returns nil when the action described by req may proceed,
	// a *quota.ExceededError when the tier limit would be crossed, or an
	// infrastructure error. The requested amount is converted into the
	// quota's measurement with the same rule RecordEvent accounts with.
	CheckQuota(ctx context.Context, req RecordRequest) error

	// RecordEvent appends a usage event. Store failures propagate; callers
	// log and continue, because the metered action already happened.
	RecordEvent(ctx context.Context, req RecordRequest) (*UsageEvent, error)

	// PeriodUsage sums the measured quantities of a tenant's events of one
	// type within the current period anchored at ref. It is the same
	// figure CheckQuota compares against the limit.
	PeriodUsage(ctx context.Context, tenantID snowflake.ID, def quota.Definition, ref time.Time) (float64, error)
}
