package app

import (
	"time"

	"github.com/aelexs/timesync/internal/domain"
)

// FallbackSnapshot derives a snapshot from the device clock in the given
// zone. It is total: a nil location is treated as UTC.
func FallbackSnapshot(now time.Time, timezone string, loc *time.Location) domain.Snapshot {
	if loc == nil {
		loc, timezone = time.UTC, "UTC"
	}
	local := now.In(loc)
	return domain.Snapshot{
		UserDate:      domain.FormatDate(local),
		UserDateTime:  local,
		UserTimezone:  timezone,
		UTCDateTime:   now.UTC(),
		IsMockDate:    false,
		DayOfWeek:     local.Weekday().String(),
		WeekNumber:    domain.ISOWeekNumber(local),
		IsWeekend:     domain.IsWeekend(local.Weekday()),
		DayBoundaries: domain.DayBounds(local),
		Source:        domain.SourceLocal,
	}
}

func (s *Service) fallbackSnapshot() domain.Snapshot {
	name, loc := s.deviceTZ()
	return FallbackSnapshot(s.clock.Now(), name, loc)
}
