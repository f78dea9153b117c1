// Package quota defines the static per-tier quota policy table and the
// admission-control rejection error.
package quota

// Period is the accumulation window of a quota.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// Measurement selects how event quantities are counted against a limit.
type Measurement string

const (
	MeasurementEvents Measurement = "events"
	MeasurementTokens Measurement = "tokens"
)

// Metered event types emitted by the booking, messaging, AI and API edges.
const (
	EventBookingCreated = "booking.created"
	EventMessageSent    = "message.sent"
	EventAIRequest      = "ai.request"
	EventAPICall        = "api.call"
)

// Definition caps accumulated usage of one event type within a period.
// A nil Limit means the event type is unbounded for the tier.
type Definition struct {
	EventType   string      `json:"event_type"`
	Label       string      `json:"label"`
	Period      Period      `json:"period"`
	Measurement Measurement `json:"measurement"`
	Limit       *float64    `json:"limit"`
}

// Unbounded reports whether the definition never rejects.
func (d Definition) Unbounded() bool { return d.Limit == nil }

func limit(v float64) *float64 { return &v }

var starterLimits = map[string]Definition{
	EventBookingCreated: {EventBookingCreated, "Bookings", PeriodMonth, MeasurementEvents, limit(200)},
	EventMessageSent:    {EventMessageSent, "Messages", PeriodMonth, MeasurementEvents, limit(100)},
	EventAIRequest:      {EventAIRequest, "AI assist tokens", PeriodDay, MeasurementTokens, limit(50_000)},
	EventAPICall:        {EventAPICall, "API calls", PeriodMonth, MeasurementEvents, limit(5_000)},
}

var standardLimits = map[string]Definition{
	EventBookingCreated: {EventBookingCreated, "Bookings", PeriodMonth, MeasurementEvents, limit(1_000)},
	EventMessageSent:    {EventMessageSent, "Messages", PeriodMonth, MeasurementEvents, limit(750)},
	EventAIRequest:      {EventAIRequest, "AI assist tokens", PeriodDay, MeasurementTokens, limit(250_000)},
	EventAPICall:        {EventAPICall, "API calls", PeriodMonth, MeasurementEvents, limit(50_000)},
}

var proLimits = map[string]Definition{
	EventBookingCreated: {EventBookingCreated, "Bookings", PeriodMonth, MeasurementEvents, nil},
	EventMessageSent:    {EventMessageSent, "Messages", PeriodMonth, MeasurementEvents, limit(5_000)},
	EventAIRequest:      {EventAIRequest, "AI assist tokens", PeriodDay, MeasurementTokens, limit(1_000_000)},
	EventAPICall:        {EventAPICall, "API calls", PeriodMonth, MeasurementEvents, nil},
}

// LimitsFor returns the quota table for a tier. An unrecognized tier falls
// back to the starter table, the most restrictive one. An event type absent
// from the returned map is unmetered for that tier and is never rejected;
// this is deliberately the same behavior as an explicit nil limit.
func LimitsFor(tier string) map[string]Definition {
	switch tier {
	case "standard":
		return standardLimits
	case "pro":
		return proLimits
	default:
		return starterLimits
	}
}
