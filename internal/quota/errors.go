package quota

import "fmt"

// ExceededError rejects a metered action that would push accumulated usage
// past the tier limit. It carries the figures a caller needs to render a
// "plan limit reached" message rather than a generic failure.
type ExceededError struct {
	EventType string  `json:"event_type"`
	Limit     float64 `json:"limit"`
	Used      float64 `json:"used"`
	Attempted float64 `json:"attempted"`
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: limit %g, used %g, attempted %g",
		e.EventType, e.Limit, e.Used, e.Attempted)
}
