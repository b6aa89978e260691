package protocol

import (
	"encoding/json"
	"strings"
)

// CurrentTime is the body of GET <base>/time/current. Field names are the
// single canonical contract; alternate spellings are not accepted.
type CurrentTime struct {
	UserDate     string `json:"user_date"`
	UserDateTime string `json:"user_datetime"`
	UserTimezone string `json:"user_timezone"`
	UTCDateTime  string `json:"utc_datetime,omitempty"`
	IsMockDate   bool   `json:"is_mock_date"`
	DayOfWeek    string `json:"day_of_week,omitempty"`
	WeekNumber   int    `json:"week_number,omitempty"`
	IsWeekend    bool   `json:"is_weekend"`
	DayStartUTC  string `json:"day_start_utc,omitempty"`
	DayEndUTC    string `json:"day_end_utc,omitempty"`

	// Raw holds the undecoded body for diagnostics.
	Raw json.RawMessage `json:"-"`
}

// MissingFields returns the wire names of required fields that are absent
// or blank. An empty result means the required set is present.
func (c *CurrentTime) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(c.UserDate) == "" {
		missing = append(missing, "user_date")
	}
	if strings.TrimSpace(c.UserDateTime) == "" {
		missing = append(missing, "user_datetime")
	}
	if strings.TrimSpace(c.UserTimezone) == "" {
		missing = append(missing, "user_timezone")
	}
	return missing
}

// SetMockRequest is the body of POST <base>/time/mock.
type SetMockRequest struct {
	MockDateTime string `json:"mock_datetime"`
}

// TimezoneRequest is the body of the timezone detect and update endpoints.
type TimezoneRequest struct {
	Timezone string `json:"timezone"`
}

// TimezoneResponse is returned by the timezone detect endpoint.
type TimezoneResponse struct {
	Timezone string `json:"timezone"`
	Changed  bool   `json:"changed"`
}

// TimezoneList is returned by GET <base>/time/timezones.
type TimezoneList struct {
	Timezones []string `json:"timezones"`
}

// WeekInfo is returned by GET <base>/time/week-info.
type WeekInfo struct {
	WeekStart  string   `json:"week_start"`
	WeekEnd    string   `json:"week_end"`
	WeekNumber int      `json:"week_number"`
	Days       []string `json:"days"`
}

// SyncCheckRequest is the body of POST <base>/time/sync-check.
type SyncCheckRequest struct {
	ClientDateTime string `json:"client_datetime"`
}

// SyncCheckResponse reports whether client and server clocks agree.
type SyncCheckResponse struct {
	InSync       bool        `json:"in_sync"`
	DriftSeconds float64     `json:"drift_seconds"`
	ServerTime   CurrentTime `json:"server_time"`
}
