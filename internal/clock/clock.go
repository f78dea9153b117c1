// Package clock abstracts wall-clock reads so period anchoring is testable.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// NewSystemClock is the production Clock constructor.
func NewSystemClock() Clock { return SystemClock{} }

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }
