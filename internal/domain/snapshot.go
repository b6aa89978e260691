package domain

import "time"

// SnapshotSource records where a Snapshot came from.
type SnapshotSource string

const (
	// SourceLocal marks a snapshot derived from the device clock.
	SourceLocal SnapshotSource = "local"
	// SourceAuthority marks a snapshot received from the time authority.
	SourceAuthority SnapshotSource = "authority"
)

// DayBoundaries holds the UTC instants that bound the user's local calendar day.
type DayBoundaries struct {
	StartUTC time.Time
	EndUTC   time.Time
}

// Snapshot is an immutable bundle of date/time facts for the current user.
// A Snapshot is never modified after construction; the sync core replaces it
// wholesale on every refresh.
type Snapshot struct {
	UserDate     string    // YYYY-MM-DD in the user's timezone
	UserDateTime time.Time // located in UserTimezone
	UserTimezone string    // IANA identifier
	UTCDateTime  time.Time
	IsMockDate   bool

	DayOfWeek  string
	WeekNumber int
	IsWeekend  bool

	DayBoundaries DayBoundaries
	Source        SnapshotSource
}

// IsAuthoritative reports whether the snapshot came from the time authority.
func (s Snapshot) IsAuthoritative() bool {
	return s.Source == SourceAuthority
}

// DayChangeEvent is emitted once per observed transition of the user date.
type DayChangeEvent struct {
	OldDate  string
	NewDate  string
	Timezone string
}

// DayBounds returns the UTC start and end instants of the calendar day that
// contains t, evaluated in t's location. End is one second before the next
// day starts, which keeps DST-length days correct.
func DayBounds(t time.Time) DayBoundaries {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	next := time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
	return DayBoundaries{
		StartUTC: start.UTC(),
		EndUTC:   next.Add(-time.Second).UTC(),
	}
}

// IsWeekend reports whether wd falls on Saturday or Sunday.
func IsWeekend(wd time.Weekday) bool {
	return wd == time.Saturday || wd == time.Sunday
}

// ISOWeekNumber returns the ISO 8601 week number of t.
func ISOWeekNumber(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}
