package quota

import (
	"testing"
	"time"
)

func TestPeriodStart(t *testing.T) {
	ref := time.Date(2026, 3, 10, 14, 30, 45, 0, time.UTC)

	if got := PeriodDay.Start(ref); !got.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("day start = %v", got)
	}
	if got := PeriodMonth.Start(ref); !got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("month start = %v", got)
	}
}

func TestPeriodStartNormalizesZone(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC
	zone := time.FixedZone("UTC-5", -5*3600)
	ref := time.Date(2026, 3, 9, 23, 30, 0, 0, zone)

	if got := PeriodDay.Start(ref); !got.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("day start = %v, want UTC boundary", got)
	}
}
