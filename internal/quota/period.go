package quota

import "time"

// ReferenceLocation anchors quota periods. All tenants accumulate against
// UTC calendar days and months regardless of salon locale.
var ReferenceLocation = time.UTC

// Start returns the beginning of the period containing ref.
func (p Period) Start(ref time.Time) time.Time {
	ref = ref.In(ReferenceLocation)
	switch p {
	case PeriodDay:
		return time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ReferenceLocation)
	default:
		return time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ReferenceLocation)
	}
}
