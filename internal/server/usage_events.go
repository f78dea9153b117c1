package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SystonTigers/receptionist-sub000/internal/metrickey"
	"github.com/SystonTigers/receptionist-sub000/internal/observability/logger"
	"github.com/SystonTigers/receptionist-sub000/internal/quota"
	"github.com/SystonTigers/receptionist-sub000/internal/tenantcontext"
	usagedomain "github.com/SystonTigers/receptionist-sub000/internal/usage/domain"
)

type ingestEventRequest struct {
	EventType  string         `json:"event_type"`
	Quantity   float64        `json:"quantity"`
	Metadata   map[string]any `json:"metadata"`
	OccurredAt *time.Time     `json:"occurred_at"`
}

// IngestUsageEvent is the admission-control boundary for metered actions.
// The quota check runs before the event is appended; callers receive 429
// with the limit arithmetic when the tier budget would be crossed.
func (s *Server) IngestUsageEvent(c *gin.Context) {
	tenantID, ok := tenantcontext.TenantIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req ingestEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.EventType) == "" {
		AbortWithError(c, newValidationError("event_type", "required", "event_type is required"))
		return
	}

	record := usagedomain.RecordRequest{
		TenantID:  snowflake.ID(tenantID),
		EventType: strings.TrimSpace(req.EventType),
		Quantity:  req.Quantity,
		Metadata:  req.Metadata,
	}
	if req.OccurredAt != nil {
		record.OccurredAt = req.OccurredAt.UTC()
	}

	ctx := c.Request.Context()
	if err := s.ledger.CheckQuota(ctx, record); err != nil {
		AbortWithError(c, err)
		return
	}

	event, err := s.ledger.RecordEvent(ctx, record)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordMessageOutcome(c, event)

	c.JSON(http.StatusAccepted, gin.H{
		"id":          event.ID,
		"event_type":  event.EventType,
		"quantity":    event.Quantity,
		"occurred_at": event.OccurredAt,
	})
}

// recordMessageOutcome feeds the delivery series the anomaly sweep watches.
// Metric failures never fail the ingest; the event is already recorded.
func (s *Server) recordMessageOutcome(c *gin.Context, event *usagedomain.UsageEvent) {
	if event.EventType != quota.EventMessageSent {
		return
	}

	dimension := metrickey.DimensionDelivered
	if delivered, ok := event.Metadata["delivered"].(bool); ok && !delivered {
		dimension = metrickey.DimensionFailed
	}

	key := metrickey.SeriesKey{Name: metrickey.SeriesMessageOutcome, Dimension: dimension}
	if err := s.recorder.Record(c.Request.Context(), event.TenantID, key, event.Quantity, event.OccurredAt); err != nil {
		logger.FromContext(c.Request.Context()).Debug("message outcome metric dropped",
			zap.String("tenant_id", event.TenantID.String()),
			zap.Error(err),
		)
	}
}
