// Package protocol defines the wire types exchanged with the time authority
// and the frames streamed to developer tools over WebSocket.
package protocol

import "encoding/json"

// FrameType identifies the type of an event stream frame.
type FrameType string

const (
	// FrameTypeHello is sent once after the WebSocket upgrade.
	FrameTypeHello FrameType = "hello"

	// FrameTypeSnapshot carries the snapshot installed by a successful sync.
	FrameTypeSnapshot FrameType = "snapshot"

	// FrameTypeDayChanged announces a transition of the user date.
	FrameTypeDayChanged FrameType = "day_changed"

	// FrameTypeDegraded announces a downgrade to a device-clock snapshot.
	FrameTypeDegraded FrameType = "degraded"
)

// Frame is the envelope for all event stream frames.
type Frame struct {
	Type    FrameType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hello is sent by the server after a successful upgrade.
type Hello struct {
	ClientID string       `json:"client_id"`
	Current  SnapshotInfo `json:"current"`
}

// SnapshotInfo is the public rendering of a time snapshot.
type SnapshotInfo struct {
	UserDate     string `json:"user_date"`
	UserDateTime string `json:"user_datetime"`
	UserTimezone string `json:"user_timezone"`
	UTCDateTime  string `json:"utc_datetime"`
	IsMockDate   bool   `json:"is_mock_date"`
	DayOfWeek    string `json:"day_of_week"`
	WeekNumber   int    `json:"week_number"`
	IsWeekend    bool   `json:"is_weekend"`
	DayStartUTC  string `json:"day_start_utc"`
	DayEndUTC    string `json:"day_end_utc"`
	Source       string `json:"source"`
}

// DayChanged is sent when the user date advances (or jumps, under a mock date).
type DayChanged struct {
	OldDate  string `json:"old_date"`
	NewDate  string `json:"new_date"`
	Timezone string `json:"timezone"`
}

// NewFrame creates a Frame with the given type and payload.
func NewFrame(frameType FrameType, payload any) (*Frame, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		var err error
		payloadBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return &Frame{
		Type:    frameType,
		Payload: payloadBytes,
	}, nil
}

// ParsePayload unmarshals the frame payload into the given struct.
func (f *Frame) ParsePayload(v any) error {
	if f.Payload == nil {
		return nil
	}
	return json.Unmarshal(f.Payload, v)
}
