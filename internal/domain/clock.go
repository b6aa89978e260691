package domain

import "time"

// Clock provides the device's notion of the current time. The sync core never
// reads time.Now directly: the fallback generator, the freshness guard, and
// the server offset all go through a Clock so tests can pin the device date.
type Clock interface {
	// Now returns the current device time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time {
	return time.Now()
}

// DateLayout is the canonical calendar date format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// FormatDate renders t as a canonical calendar date in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a canonical calendar date. The result is midnight in loc;
// a nil loc means UTC.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// Ensure RealClock implements Clock at compile time.
var _ Clock = RealClock{}
