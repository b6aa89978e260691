// Package calendar computes date ranges, relative labels and localized
// strings from a reference "today". It never reads the device clock; callers
// pass the current user date so simulated dates flow through every result.
package calendar

import (
	"time"

	"github.com/aelexs/timesync/internal/domain"
)

// Range is an inclusive calendar window. Start is midnight of the first day,
// End is one second before midnight following the last day.
type Range struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of calendar days covered by r.
func (r Range) Days() int {
	return daysBetween(r.Start, r.End) + 1
}

// StartOfDay truncates t to local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the first day of the week containing t.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	offset := (int(t.Weekday()) - int(weekStart) + 7) % 7
	day := StartOfDay(t)
	return time.Date(day.Year(), day.Month(), day.Day()-offset, 0, 0, 0, 0, t.Location())
}

// EndOfWeek returns the last second of the week containing t.
func EndOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	start := StartOfWeek(t, weekStart)
	return endOf(start.AddDate(0, 0, 7))
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last second of t's month.
func EndOfMonth(t time.Time) time.Time {
	return endOf(StartOfMonth(t).AddDate(0, 1, 0))
}

// DateRange returns the window named by filter around today.
func DateRange(today time.Time, filter domain.DateFilter, weekStart time.Weekday) Range {
	switch filter {
	case domain.FilterWeek:
		return Range{Start: StartOfWeek(today, weekStart), End: EndOfWeek(today, weekStart)}
	case domain.FilterMonth:
		return Range{Start: StartOfMonth(today), End: EndOfMonth(today)}
	case domain.FilterYear:
		start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
		return Range{Start: start, End: endOf(start.AddDate(1, 0, 0))}
	default:
		start := StartOfDay(today)
		return Range{Start: start, End: endOf(start.AddDate(0, 0, 1))}
	}
}

// WeekDays lists the dates (YYYY-MM-DD) of the week containing t.
func WeekDays(t time.Time, weekStart time.Weekday) []string {
	start := StartOfWeek(t, weekStart)
	days := make([]string, 7)
	for i := range days {
		days[i] = domain.FormatDate(start.AddDate(0, 0, i))
	}
	return days
}

// endOf returns one second before next, which must be a local midnight.
func endOf(next time.Time) time.Time {
	return next.Add(-time.Second)
}

// daysBetween counts calendar days from a to b, ignoring time of day and
// DST shifts.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
