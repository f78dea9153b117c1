// Package anomaly grades the latest daily observation of a series against
// the mean of its preceding days. Detectors are pure functions over
// pre-built series; they perform no I/O.
package anomaly

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// Severity grades an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// MinHistory is the fewest daily buckets a detector accepts. Below it no
// alert is produced; short history is a policy outcome, not an error.
const MinHistory = 4

// Bucket is one day of a reconstructed series.
type Bucket struct {
	Date  time.Time
	Value float64
}

// Alert is derived on evaluation and never persisted. Its ID is
// deterministic over (metric, latest bucket date), so repeated evaluations
// of the same day de-duplicate downstream.
type Alert struct {
	ID          string   `json:"id"`
	Metric      string   `json:"metric"`
	Value       float64  `json:"value"`
	Baseline    *float64 `json:"baseline,omitempty"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// DetectSpike compares the latest bucket of a count or latency series
// against the mean of all preceding buckets.
func DetectSpike(metric, label string, buckets []Bucket) *Alert {
	latest, baseline, ok := splitBaseline(buckets)
	if !ok {
		return nil
	}

	if latest.Value <= 0 && baseline <= 0 {
		return nil
	}
	if baseline == 0 {
		zero := 0.0
		return &Alert{
			ID:       alertID(metric, latest.Date),
			Metric:   metric,
			Value:    latest.Value,
			Baseline: &zero,
			Severity: SeverityCritical,
			Title:    label + " appeared without history",
			Description: fmt.Sprintf("%s reached %.2f on %s with no activity in the preceding days",
				label, latest.Value, latest.Date.Format("2006-01-02")),
		}
	}

	ratio := latest.Value / baseline
	if ratio <= 1.5 {
		return nil
	}

	severity := SeverityWarning
	if ratio >= 2.0 {
		severity = SeverityCritical
	}
	return &Alert{
		ID:       alertID(metric, latest.Date),
		Metric:   metric,
		Value:    latest.Value,
		Baseline: &baseline,
		Severity: severity,
		Title:    label + " spike",
		Description: fmt.Sprintf("%s rose to %.2f on %s, %.1fx the %.2f baseline",
			label, latest.Value, latest.Date.Format("2006-01-02"), ratio, baseline),
	}
}

// DetectErrorRate applies the rate-specific thresholds to a series of daily
// error rates. Rates at or below one percent never alert.
func DetectErrorRate(metric, label string, buckets []Bucket) *Alert {
	latest, baseline, ok := splitBaseline(buckets)
	if !ok {
		return nil
	}

	if latest.Value <= 0.01 {
		return nil
	}
	if baseline == 0 {
		if latest.Value <= 0.02 {
			return nil
		}
		zero := 0.0
		return &Alert{
			ID:       alertID(metric, latest.Date),
			Metric:   metric,
			Value:    latest.Value,
			Baseline: &zero,
			Severity: SeverityCritical,
			Title:    label + " appeared without history",
			Description: fmt.Sprintf("%s reached %.2f%% on %s after error-free days",
				label, latest.Value*100, latest.Date.Format("2006-01-02")),
		}
	}

	ratio := latest.Value / baseline
	if ratio <= 1.75 {
		return nil
	}

	severity := SeverityWarning
	if ratio >= 2.5 {
		severity = SeverityCritical
	}
	return &Alert{
		ID:       alertID(metric, latest.Date),
		Metric:   metric,
		Value:    latest.Value,
		Baseline: &baseline,
		Severity: severity,
		Title:    label + " spike",
		Description: fmt.Sprintf("%s rose to %.2f%% on %s, %.1fx the %.2f%% baseline",
			label, latest.Value*100, latest.Date.Format("2006-01-02"), ratio, baseline*100),
	}
}

// splitBaseline orders buckets by date and returns the latest bucket with
// the arithmetic mean of everything before it.
func splitBaseline(buckets []Bucket) (Bucket, float64, bool) {
	if len(buckets) < MinHistory {
		return Bucket{}, 0, false
	}

	ordered := make([]Bucket, len(buckets))
	copy(ordered, buckets)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	latest := ordered[len(ordered)-1]
	var sum float64
	for _, bucket := range ordered[:len(ordered)-1] {
		sum += bucket.Value
	}
	return latest, sum / float64(len(ordered)-1), true
}

func alertID(metric string, day time.Time) string {
	digest := sha256.Sum256([]byte(metric + "|" + day.UTC().Format("2006-01-02")))
	return hex.EncodeToString(digest[:])[:16]
}
