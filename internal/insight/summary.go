// Package insight reconstructs per-tenant daily time series from stored
// metrics and evaluates them for anomalies.
package insight

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/SystonTigers/receptionist-sub000/internal/insight/anomaly"
)

// WindowDays is the fixed trailing window a summary covers.
const WindowDays = 14

// SeriesPoint is one day of a reconstructed series. Date is the UTC
// calendar date in 2006-01-02 form.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// LatencyStats reduces the window's raw latency samples.
type LatencyStats struct {
	P50         float64       `json:"p50_ms"`
	P95         float64       `json:"p95_ms"`
	Mean        float64       `json:"mean_ms"`
	SampleCount int           `json:"sample_count"`
	DailyAvg    []SeriesPoint `json:"daily_avg"`
}

// MessagingStats bundles delivery outcome series with the window failure rate.
type MessagingStats struct {
	Delivered   []SeriesPoint `json:"delivered"`
	Failed      []SeriesPoint `json:"failed"`
	FailureRate float64       `json:"failure_rate"`
}

// Summary is the dashboard observability payload for one tenant. It is
// rebuilt on every call; nothing in it is persisted.
type Summary struct {
	TenantID    snowflake.ID     `json:"tenant_id"`
	WindowStart time.Time        `json:"window_start"`
	WindowEnd   time.Time        `json:"window_end"`
	Requests    []SeriesPoint    `json:"requests"`
	Errors      []SeriesPoint    `json:"errors"`
	ErrorRate   []SeriesPoint    `json:"error_rate"`
	Latency     LatencyStats     `json:"latency"`
	Messaging   MessagingStats   `json:"messaging"`
	Alerts      []*anomaly.Alert `json:"alerts"`
}
