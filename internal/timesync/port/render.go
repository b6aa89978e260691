package port

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/internal/errmap"
	"github.com/aelexs/timesync/internal/timesync/app"
	"github.com/aelexs/timesync/pkg/protocol"
)

// maxBodyBytes bounds request bodies on command endpoints.
const maxBodyBytes = 16 << 10

// RenderSnapshot renders a snapshot for the wire.
func RenderSnapshot(s domain.Snapshot) protocol.SnapshotInfo {
	return protocol.SnapshotInfo{
		UserDate:     s.UserDate,
		UserDateTime: formatInstant(s.UserDateTime),
		UserTimezone: s.UserTimezone,
		UTCDateTime:  formatInstant(s.UTCDateTime.UTC()),
		IsMockDate:   s.IsMockDate,
		DayOfWeek:    s.DayOfWeek,
		WeekNumber:   s.WeekNumber,
		IsWeekend:    s.IsWeekend,
		DayStartUTC:  formatInstant(s.DayBoundaries.StartUTC),
		DayEndUTC:    formatInstant(s.DayBoundaries.EndUTC),
		Source:       string(s.Source),
	}
}

// eventFrame converts a bus event to its stream frame.
func eventFrame(ev app.Event) (*protocol.Frame, error) {
	switch ev.Kind {
	case app.EventDayChanged:
		if ev.DayChange != nil {
			return protocol.NewFrame(protocol.FrameTypeDayChanged, protocol.DayChanged{
				OldDate:  ev.DayChange.OldDate,
				NewDate:  ev.DayChange.NewDate,
				Timezone: ev.DayChange.Timezone,
			})
		}
	case app.EventDegraded:
		return protocol.NewFrame(protocol.FrameTypeDegraded, RenderSnapshot(ev.Snapshot))
	}
	return protocol.NewFrame(protocol.FrameTypeSnapshot, RenderSnapshot(ev.Snapshot))
}

func formatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	httpErr := errmap.ToHTTPError(err)
	writeJSON(w, httpErr.StatusCode, httpErr)
}

// decodeBody decodes a bounded JSON body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errBadBody(err)
	}
	return nil
}
