package insight

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/SystonTigers/receptionist-sub000/internal/clock"
	"github.com/SystonTigers/receptionist-sub000/internal/metrickey"
	usagedomain "github.com/SystonTigers/receptionist-sub000/internal/usage/domain"
)

func newTestSummarizer(t *testing.T, at time.Time) (*Summarizer, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&usagedomain.UsageMetric{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	summarizer := NewSummarizer(SummarizerParam{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.FixedClock{At: at},
	})
	return summarizer, db
}

var metricSeq snowflake.ID

func insertMetric(t *testing.T, db *gorm.DB, tenantID snowflake.ID, key metrickey.SeriesKey, value float64, at time.Time) {
	t.Helper()
	metricSeq++
	metric := usagedomain.UsageMetric{
		ID:         metricSeq,
		TenantID:   tenantID,
		MetricKey:  key.Encode(),
		Value:      value,
		OccurredAt: at,
	}
	if err := db.Create(&metric).Error; err != nil {
		t.Fatalf("insert metric: %v", err)
	}
}

func TestSummarizeBucketsAndRates(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	summarizer, db := newTestSummarizer(t, now)
	tenantID := snowflake.ID(61)

	requests := metrickey.SeriesKey{Name: metrickey.SeriesHTTPRequests}
	errors := metrickey.SeriesKey{Name: metrickey.SeriesHTTPErrors}
	delivered := metrickey.SeriesKey{Name: metrickey.SeriesMessageOutcome, Dimension: metrickey.DimensionDelivered}
	failed := metrickey.SeriesKey{Name: metrickey.SeriesMessageOutcome, Dimension: metrickey.DimensionFailed}

	march14 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	insertMetric(t, db, tenantID, requests, 1, march14)
	insertMetric(t, db, tenantID, requests, 1, march14.Add(time.Hour))
	insertMetric(t, db, tenantID, requests, 1, march14.Add(2*time.Hour))
	insertMetric(t, db, tenantID, requests, 1, march14.Add(3*time.Hour))
	insertMetric(t, db, tenantID, errors, 1, march14.Add(time.Hour))

	insertMetric(t, db, tenantID, delivered, 1, march14)
	insertMetric(t, db, tenantID, delivered, 1, march14.Add(time.Minute))
	insertMetric(t, db, tenantID, delivered, 1, march14.Add(2*time.Minute))
	insertMetric(t, db, tenantID, failed, 1, march14.Add(3*time.Minute))

	summary, err := summarizer.Summarize(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	// 14-day lookback from March 15 touches 15 calendar dates
	if len(summary.Requests) != WindowDays+1 {
		t.Fatalf("request series length = %d, want %d", len(summary.Requests), WindowDays+1)
	}

	byDate := make(map[string]float64)
	for _, point := range summary.Requests {
		byDate[point.Date] = point.Value
	}
	if byDate["2026-03-14"] != 4 {
		t.Fatalf("requests on 2026-03-14 = %g, want 4", byDate["2026-03-14"])
	}
	if byDate["2026-03-10"] != 0 {
		t.Fatalf("quiet day should be an explicit zero, got %g", byDate["2026-03-10"])
	}

	for _, point := range summary.ErrorRate {
		if point.Date != "2026-03-14" {
			if point.Value != 0 {
				t.Fatalf("error rate on %s = %g, want 0", point.Date, point.Value)
			}
			continue
		}
		if math.Abs(point.Value-0.25) > 1e-9 {
			t.Fatalf("error rate on 2026-03-14 = %g, want 0.25", point.Value)
		}
	}

	if math.Abs(summary.Messaging.FailureRate-0.25) > 1e-9 {
		t.Fatalf("failure rate = %g, want 0.25", summary.Messaging.FailureRate)
	}
}

func TestSummarizeLatencyStats(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	summarizer, db := newTestSummarizer(t, now)
	tenantID := snowflake.ID(62)

	latency := metrickey.SeriesKey{Name: metrickey.SeriesHTTPLatencyMS}
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for _, sample := range []float64{10, 20, 30, 40} {
		insertMetric(t, db, tenantID, latency, sample, at)
		at = at.Add(time.Minute)
	}

	summary, err := summarizer.Summarize(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	if summary.Latency.SampleCount != 4 {
		t.Fatalf("sample count = %d, want 4", summary.Latency.SampleCount)
	}
	if math.Abs(summary.Latency.P50-25) > 1e-9 {
		t.Fatalf("p50 = %g, want 25", summary.Latency.P50)
	}
	if math.Abs(summary.Latency.P95-38.5) > 1e-9 {
		t.Fatalf("p95 = %g, want 38.5", summary.Latency.P95)
	}
	if math.Abs(summary.Latency.Mean-25) > 1e-9 {
		t.Fatalf("mean = %g, want 25", summary.Latency.Mean)
	}

	// only the day carrying samples appears in the daily averages
	if len(summary.Latency.DailyAvg) != 1 {
		t.Fatalf("daily averages = %d points, want 1", len(summary.Latency.DailyAvg))
	}
	if math.Abs(summary.Latency.DailyAvg[0].Value-25) > 1e-9 {
		t.Fatalf("daily average = %g, want 25", summary.Latency.DailyAvg[0].Value)
	}
}

func TestSummarizeRaisesErrorRateAlert(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	summarizer, db := newTestSummarizer(t, now)
	tenantID := snowflake.ID(63)

	requests := metrickey.SeriesKey{Name: metrickey.SeriesHTTPRequests}
	errors := metrickey.SeriesKey{Name: metrickey.SeriesHTTPErrors}

	// steady 2% error rate for three days, then 10% on the current day
	for offset := 3; offset >= 0; offset-- {
		day := now.AddDate(0, 0, -offset)
		insertMetric(t, db, tenantID, requests, 100, day)
		if offset == 0 {
			insertMetric(t, db, tenantID, errors, 10, day)
		} else {
			insertMetric(t, db, tenantID, errors, 2, day)
		}
	}

	summary, err := summarizer.Summarize(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	found := false
	for _, alert := range summary.Alerts {
		if alert.Metric == metrickey.SeriesHTTPErrors {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an error-rate alert, got %d alerts", len(summary.Alerts))
	}
}

func TestSummarizeRejectsZeroTenant(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	summarizer, _ := newTestSummarizer(t, now)

	if _, err := summarizer.Summarize(context.Background(), 0); err == nil {
		t.Fatalf("expected error for zero tenant")
	}
}

func TestPercentile(t *testing.T) {
	samples := []float64{10, 20, 30, 40}
	if got := Percentile(samples, 0.50); math.Abs(got-25) > 1e-9 {
		t.Fatalf("p50 = %g, want 25", got)
	}
	if got := Percentile(samples, 0.95); math.Abs(got-38.5) > 1e-9 {
		t.Fatalf("p95 = %g, want 38.5", got)
	}
	if got := Percentile(nil, 0.5); got != 0 {
		t.Fatalf("empty percentile = %g, want 0", got)
	}
	if got := Percentile([]float64{7}, 0.99); got != 7 {
		t.Fatalf("single sample percentile = %g, want 7", got)
	}
	if got := Percentile(samples, 1); got != 40 {
		t.Fatalf("p100 = %g, want 40", got)
	}
}
