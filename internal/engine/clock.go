package engine

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// It is used by the Machine to compute days remaining until a birthday.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
// A nil Location means the process local timezone.
type RealClock struct {
	Location *time.Location
}

// Now returns the current time in the configured location.
func (c RealClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}
