package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/pkg/protocol"
)

// localDateTimeLayout accepts instants without an offset; they are read in
// the user's timezone.
const localDateTimeLayout = "2006-01-02T15:04:05"

// ParseSnapshot validates an authority payload and converts it into a
// Snapshot. Any missing required field or uninterpretable value yields
// ErrContractViolation and no snapshot.
func ParseSnapshot(ct *protocol.CurrentTime) (domain.Snapshot, error) {
	if ct == nil {
		return domain.Snapshot{}, fmt.Errorf("%w: empty payload", domain.ErrContractViolation)
	}
	if missing := ct.MissingFields(); len(missing) > 0 {
		return domain.Snapshot{}, fmt.Errorf("%w: missing %s",
			domain.ErrContractViolation, strings.Join(missing, ", "))
	}

	loc, err := domain.LoadTimezone(ct.UserTimezone)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: unknown timezone %q",
			domain.ErrContractViolation, ct.UserTimezone)
	}

	date, err := domain.ParseDate(ct.UserDate, loc)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: user_date %q",
			domain.ErrContractViolation, ct.UserDate)
	}

	userDT, err := parseInstant(ct.UserDateTime, loc)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: user_datetime %q",
			domain.ErrContractViolation, ct.UserDateTime)
	}

	utc := userDT.UTC()
	if ct.UTCDateTime != "" {
		utc, err = parseInstant(ct.UTCDateTime, time.UTC)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: utc_datetime %q",
				domain.ErrContractViolation, ct.UTCDateTime)
		}
		utc = utc.UTC()
	}

	snap := domain.Snapshot{
		UserDate:     ct.UserDate,
		UserDateTime: userDT.In(loc),
		UserTimezone: ct.UserTimezone,
		UTCDateTime:  utc,
		IsMockDate:   ct.IsMockDate,
		DayOfWeek:    ct.DayOfWeek,
		WeekNumber:   ct.WeekNumber,
		IsWeekend:    ct.IsWeekend,
		Source:       domain.SourceAuthority,
	}

	// Calendar facts come from the authority; they are derived from
	// user_date only when an older authority omits them.
	if snap.DayOfWeek == "" {
		snap.DayOfWeek = date.Weekday().String()
		snap.IsWeekend = domain.IsWeekend(date.Weekday())
	}
	if snap.WeekNumber == 0 {
		snap.WeekNumber = domain.ISOWeekNumber(date)
	}

	snap.DayBoundaries = domain.DayBounds(date)
	if ct.DayStartUTC != "" && ct.DayEndUTC != "" {
		start, errStart := time.Parse(time.RFC3339, ct.DayStartUTC)
		end, errEnd := time.Parse(time.RFC3339, ct.DayEndUTC)
		if errStart != nil || errEnd != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: day boundaries %q..%q",
				domain.ErrContractViolation, ct.DayStartUTC, ct.DayEndUTC)
		}
		snap.DayBoundaries = domain.DayBoundaries{StartUTC: start.UTC(), EndUTC: end.UTC()}
	}

	return snap, nil
}

func parseInstant(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(localDateTimeLayout, s, loc)
}
