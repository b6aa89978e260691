package app

import (
	"time"

	"github.com/aelexs/timesync/internal/calendar"
	"github.com/aelexs/timesync/internal/domain"
)

// Today returns local midnight of the current user date in the user's
// timezone. All derived date helpers start here, never at the device clock.
func (s *Service) Today() time.Time {
	snap := s.Snapshot()
	loc, err := domain.LoadTimezone(snap.UserTimezone)
	if err != nil {
		loc = time.UTC
	}
	d, err := domain.ParseDate(snap.UserDate, loc)
	if err != nil {
		return calendar.StartOfDay(snap.UserDateTime)
	}
	return d
}

// StartOfWeek returns the first day of the user's current week, honoring the
// configured week start.
func (s *Service) StartOfWeek() time.Time {
	return calendar.StartOfWeek(s.Today(), s.weekStart)
}

// StartOfMonth returns the first day of the user's current month.
func (s *Service) StartOfMonth() time.Time {
	return calendar.StartOfMonth(s.Today())
}

// DateRange returns the window named by filter around the user date.
func (s *Service) DateRange(filter domain.DateFilter) calendar.Range {
	return calendar.DateRange(s.Today(), filter, s.weekStart)
}

// WeekDays lists the dates of the current user week.
func (s *Service) WeekDays() []string {
	return calendar.WeekDays(s.Today(), s.weekStart)
}

// FormatUserDate renders t in the configured locale.
func (s *Service) FormatUserDate(t time.Time, style calendar.Style) string {
	return s.formatter.Format(t, style)
}

// FormatRelativeDate labels date relative to the user date.
func (s *Service) FormatRelativeDate(date time.Time) string {
	return calendar.FormatRelative(date, s.Today())
}
