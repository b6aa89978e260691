package domain

import "time"

// Normative sync limits. These are compiled defaults that can be overridden
// via configuration.
const (
	// Sync coordinator
	SyncFreshnessWindow      = 5 * time.Minute  // cached snapshot younger than this skips the network
	SyncRequestTimeout       = 10 * time.Second // bounded round-trip to the authority
	MaxConsecutiveSyncErrors = 3                // error ceiling; diagnostics only, retries continue

	// Periodic scheduler
	ResyncInterval = 30 * time.Minute

	// Connectivity probing
	ConnectivityProbeInterval = 15 * time.Second
	ConnectivityProbeTimeout  = 3 * time.Second

	// Day-change cache invalidation
	CacheInvalidationTimeout = 5 * time.Second
	RedisTimeout             = 2 * time.Second

	// Clock drift diagnostics
	NTPQueryTimeout    = 5 * time.Second
	NTPDriftThreshold  = 500 * time.Millisecond
	DefaultNTPServer   = "pool.ntp.org"
	DefaultLocale      = "en-US"
	DefaultWeekStart   = time.Monday

	// Graceful shutdown
	GracefulShutdownTimeout = 30 * time.Second
	ShutdownDrainDelay      = 2 * time.Second
	ShutdownHTTPTimeout     = 10 * time.Second
	ShutdownOTELTimeout     = 5 * time.Second
)

// DateFilter names a calendar window relative to the current user date.
type DateFilter string

const (
	FilterDay   DateFilter = "day"
	FilterWeek  DateFilter = "week"
	FilterMonth DateFilter = "month"
	FilterYear  DateFilter = "year"
)

// ParseDateFilter normalizes a filter name. "today" is accepted as an alias
// for FilterDay.
func ParseDateFilter(s string) (DateFilter, bool) {
	switch s {
	case "day", "today":
		return FilterDay, true
	case "week":
		return FilterWeek, true
	case "month":
		return FilterMonth, true
	case "year":
		return FilterYear, true
	}
	return "", false
}
