package calendar

import (
	"fmt"
	"time"
)

// FormatRelative labels date relative to today: "Today", "Tomorrow",
// "Yesterday", "In N days" or "N days ago". Only the calendar dates are
// compared; times of day are ignored.
func FormatRelative(date, today time.Time) string {
	diff := daysBetween(today, date)
	switch {
	case diff == 0:
		return "Today"
	case diff == 1:
		return "Tomorrow"
	case diff == -1:
		return "Yesterday"
	case diff > 1:
		return fmt.Sprintf("In %d days", diff)
	default:
		return fmt.Sprintf("%d days ago", -diff)
	}
}
