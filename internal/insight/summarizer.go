package insight

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SystonTigers/receptionist-sub000/internal/clock"
	"github.com/SystonTigers/receptionist-sub000/internal/insight/anomaly"
	"github.com/SystonTigers/receptionist-sub000/internal/metrickey"
	usagedomain "github.com/SystonTigers/receptionist-sub000/internal/usage/domain"
	"github.com/SystonTigers/receptionist-sub000/pkg/db/option"
	"github.com/SystonTigers/receptionist-sub000/pkg/repository"
)

const dateLayout = "2006-01-02"

type SummarizerParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Summarizer struct {
	log *zap.Logger

	clock      clock.Clock
	metricrepo repository.Repository[usagedomain.UsageMetric]
}

func NewSummarizer(p SummarizerParam) *Summarizer {
	return &Summarizer{
		log: p.Log.Named("insight.summarizer"),

		clock:      p.Clock,
		metricrepo: repository.ProvideStore[usagedomain.UsageMetric](p.DB),
	}
}

// dailyBucket accumulates one UTC calendar day of one series.
type dailyBucket struct {
	sum   float64
	count int
}

// Summarize rebuilds the trailing 14-day observability picture for a
// tenant. Read-only; safe to call repeatedly.
func (s *Summarizer) Summarize(ctx context.Context, tenantID snowflake.ID) (Summary, error) {
	if tenantID == 0 {
		return Summary{}, usagedomain.ErrInvalidTenant
	}

	windowEnd := s.clock.Now()
	windowStart := windowEnd.AddDate(0, 0, -WindowDays)

	rows, err := s.metricrepo.Find(ctx,
		&usagedomain.UsageMetric{TenantID: tenantID},
		option.Where("occurred_at >= ?", windowStart),
		option.OrderAsc("occurred_at"),
	)
	if err != nil {
		return Summary{}, err
	}

	requests := make(map[string]*dailyBucket)
	errorsByDay := make(map[string]*dailyBucket)
	latency := make(map[string]*dailyBucket)
	delivered := make(map[string]*dailyBucket)
	failed := make(map[string]*dailyBucket)
	var latencySamples []float64

	for _, row := range rows {
		key := metrickey.Decode(row.MetricKey)
		day := row.OccurredAt.UTC().Format(dateLayout)

		switch key.Name {
		case metrickey.SeriesHTTPRequests:
			accumulate(requests, day, row.Value)
		case metrickey.SeriesHTTPErrors:
			accumulate(errorsByDay, day, row.Value)
		case metrickey.SeriesHTTPLatencyMS:
			accumulate(latency, day, row.Value)
			latencySamples = append(latencySamples, row.Value)
		case metrickey.SeriesMessageOutcome:
			switch key.Dimension {
			case metrickey.DimensionDelivered:
				accumulate(delivered, day, row.Value)
			case metrickey.DimensionFailed:
				accumulate(failed, day, row.Value)
			}
		}
	}

	days := windowDates(windowStart, windowEnd)

	requestSeries := seriesFor(days, requests)
	errorSeries := seriesFor(days, errorsByDay)
	errorRateSeries := make([]SeriesPoint, len(days))
	for i, day := range days {
		var rate float64
		if req := bucketSum(requests, day); req > 0 {
			rate = bucketSum(errorsByDay, day) / req
		}
		errorRateSeries[i] = SeriesPoint{Date: day, Value: rate}
	}

	latencyDaily := averageSeries(days, latency)
	deliveredSeries := seriesFor(days, delivered)
	failedSeries := seriesFor(days, failed)

	summary := Summary{
		TenantID:    tenantID,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Requests:    requestSeries,
		Errors:      errorSeries,
		ErrorRate:   errorRateSeries,
		Latency: LatencyStats{
			P50:         Percentile(latencySamples, 0.50),
			P95:         Percentile(latencySamples, 0.95),
			Mean:        mean(latencySamples),
			SampleCount: len(latencySamples),
			DailyAvg:    latencyDaily,
		},
		Messaging: MessagingStats{
			Delivered:   deliveredSeries,
			Failed:      failedSeries,
			FailureRate: failureRate(deliveredSeries, failedSeries),
		},
	}

	summary.Alerts = collectAlerts(summary)
	return summary, nil
}

func collectAlerts(summary Summary) []*anomaly.Alert {
	alerts := make([]*anomaly.Alert, 0, 3)
	if alert := anomaly.DetectErrorRate(metrickey.SeriesHTTPErrors, "Error rate", toBuckets(summary.ErrorRate)); alert != nil {
		alerts = append(alerts, alert)
	}
	if alert := anomaly.DetectSpike(metrickey.SeriesHTTPLatencyMS, "Request latency", toBuckets(summary.Latency.DailyAvg)); alert != nil {
		alerts = append(alerts, alert)
	}
	if alert := anomaly.DetectSpike(metrickey.SeriesMessageOutcome+metrickey.Separator+metrickey.DimensionFailed,
		"Message failures", toBuckets(summary.Messaging.Failed)); alert != nil {
		alerts = append(alerts, alert)
	}
	return alerts
}

func toBuckets(points []SeriesPoint) []anomaly.Bucket {
	buckets := make([]anomaly.Bucket, 0, len(points))
	for _, point := range points {
		date, err := time.ParseInLocation(dateLayout, point.Date, time.UTC)
		if err != nil {
			continue
		}
		buckets = append(buckets, anomaly.Bucket{Date: date, Value: point.Value})
	}
	return buckets
}

func accumulate(buckets map[string]*dailyBucket, day string, value float64) {
	bucket := buckets[day]
	if bucket == nil {
		bucket = &dailyBucket{}
		buckets[day] = bucket
	}
	bucket.sum += value
	bucket.count++
}

func bucketSum(buckets map[string]*dailyBucket, day string) float64 {
	if bucket := buckets[day]; bucket != nil {
		return bucket.sum
	}
	return 0
}

// windowDates lists every UTC calendar date touched by the window, oldest
// first, so quiet days appear as explicit zeros.
func windowDates(start, end time.Time) []string {
	var days []string
	day := time.Date(start.UTC().Year(), start.UTC().Month(), start.UTC().Day(), 0, 0, 0, 0, time.UTC)
	last := end.UTC().Format(dateLayout)
	for {
		formatted := day.Format(dateLayout)
		days = append(days, formatted)
		if formatted == last {
			return days
		}
		day = day.AddDate(0, 0, 1)
	}
}

func seriesFor(days []string, buckets map[string]*dailyBucket) []SeriesPoint {
	series := make([]SeriesPoint, len(days))
	for i, day := range days {
		series[i] = SeriesPoint{Date: day, Value: bucketSum(buckets, day)}
	}
	return series
}

// averageSeries emits points only for days carrying samples; an average
// over an empty day is undefined, not zero.
func averageSeries(days []string, buckets map[string]*dailyBucket) []SeriesPoint {
	series := make([]SeriesPoint, 0, len(days))
	for _, day := range days {
		bucket := buckets[day]
		if bucket == nil || bucket.count == 0 {
			continue
		}
		series = append(series, SeriesPoint{Date: day, Value: bucket.sum / float64(bucket.count)})
	}
	return series
}

func failureRate(delivered, failed []SeriesPoint) float64 {
	var ok, bad float64
	for _, point := range delivered {
		ok += point.Value
	}
	for _, point := range failed {
		bad += point.Value
	}
	total := ok + bad
	if total == 0 {
		return 0
	}
	return bad / total
}

// Percentile interpolates linearly between the two nearest ranks of the
// sorted samples. Percentile(nil, q) is 0.
func Percentile(samples []float64, q float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := q * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	if lower >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	fraction := rank - float64(lower)
	return sorted[lower] + fraction*(sorted[lower+1]-sorted[lower])
}

func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, sample := range samples {
		sum += sample
	}
	return sum / float64(len(samples))
}
