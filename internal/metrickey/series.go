package metrickey

// Well-known series names written by request instrumentation and read back
// by the observability summarizer.
const (
	SeriesHTTPRequests   = "http.requests"
	SeriesHTTPErrors     = "http.errors"
	SeriesHTTPLatencyMS  = "http.latency_ms"
	SeriesMessageOutcome = "message.outcome"
)

// Dimensions of the messaging outcome series.
const (
	DimensionDelivered = "delivered"
	DimensionFailed    = "failed"
)
