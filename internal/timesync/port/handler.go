// Package port exposes the time service to developer tools over HTTP and a
// WebSocket event stream.
package port

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aelexs/timesync/internal/calendar"
	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/internal/timesync/app"
	"github.com/aelexs/timesync/pkg/protocol"
)

// timeService is a narrow, consumer-defined interface for the facade
// operations the handler requires. *app.Service satisfies it.
type timeService interface {
	Snapshot() domain.Snapshot
	Status() app.State
	Today() time.Time
	DateRange(filter domain.DateFilter) calendar.Range
	FormatUserDate(t time.Time, style calendar.Style) string
	FormatRelativeDate(date time.Time) string

	ForceSync(ctx context.Context) (app.State, error)
	SetMockDateTime(ctx context.Context, iso string) (domain.Snapshot, error)
	SetAuthenticationStatus(ctx context.Context, authenticated bool)

	ClockDrift(ctx context.Context) (app.DriftReport, error)
	CheckSync(ctx context.Context) (protocol.SyncCheckResponse, error)
	UpdateTimezone(ctx context.Context, timezone string) error
	DetectTimezone(ctx context.Context) (protocol.TimezoneResponse, error)
	AvailableTimezones(ctx context.Context) ([]string, error)
	WeekInfo(ctx context.Context) (protocol.WeekInfo, error)

	eventSource
}

// sessionStore holds the bearer credential forwarded to the authority.
// *auth.Session satisfies it.
type sessionStore interface {
	SetToken(token string) (bool, error)
	Clear()
	Subject() string
	ExpiresAt() (time.Time, bool)
}

var _ timeService = (*app.Service)(nil)

// Handler serves the developer HTTP surface.
type Handler struct {
	svc      timeService
	sessions sessionStore
	events   *EventStream
	logger   *slog.Logger
}

// NewHandler creates a Handler. The returned handler owns an EventStream that
// must be closed on shutdown.
func NewHandler(svc timeService, sessions sessionStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:      svc,
		sessions: sessions,
		events:   NewEventStream(svc, logger),
		logger:   logger,
	}
}

// Events returns the WebSocket event stream.
func (h *Handler) Events() *EventStream {
	return h.events
}

// Routes registers every endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/time", func(r chi.Router) {
		r.Get("/", h.getTime)
		r.Get("/range", h.getRange)
		r.Get("/relative", h.getRelative)
		r.Get("/status", h.getStatus)
		r.Post("/refresh", h.postRefresh)

		r.Post("/mock", h.postMock)
		r.Delete("/mock", h.deleteMock)

		r.Get("/drift", h.getDrift)
		r.Post("/sync-check", h.postSyncCheck)
		r.Put("/timezone", h.putTimezone)
		r.Post("/timezone/detect", h.postDetectTimezone)
		r.Get("/timezones", h.getTimezones)
		r.Get("/week-info", h.getWeekInfo)

		r.Get("/events", h.events.ServeHTTP)
	})

	r.Route("/session", func(r chi.Router) {
		r.Put("/", h.putSession)
		r.Delete("/", h.deleteSession)
	})
}

type timeResponse struct {
	Ready     bool                  `json:"ready"`
	Snapshot  protocol.SnapshotInfo `json:"snapshot"`
	Formatted string                `json:"formatted"`
}

func (h *Handler) getTime(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.Snapshot()
	style := calendar.ParseStyle(r.URL.Query().Get("style"))
	writeJSON(w, http.StatusOK, timeResponse{
		Ready:     h.svc.Status().Ready,
		Snapshot:  RenderSnapshot(snap),
		Formatted: h.svc.FormatUserDate(snap.UserDateTime, style),
	})
}

type rangeResponse struct {
	Filter    string `json:"filter"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Days      int    `json:"days"`
}

func (h *Handler) getRange(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("filter")
	if raw == "" {
		raw = string(domain.FilterDay)
	}
	filter, ok := domain.ParseDateFilter(raw)
	if !ok {
		writeError(w, fmt.Errorf("%w: filter %q", domain.ErrInvalidInput, raw))
		return
	}
	rng := h.svc.DateRange(filter)
	writeJSON(w, http.StatusOK, rangeResponse{
		Filter:    string(filter),
		StartDate: domain.FormatDate(rng.Start),
		EndDate:   domain.FormatDate(rng.End),
		Start:     formatInstant(rng.Start),
		End:       formatInstant(rng.End),
		Days:      rng.Days(),
	})
}

type relativeResponse struct {
	Date  string `json:"date"`
	Label string `json:"label"`
}

func (h *Handler) getRelative(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	date, err := domain.ParseDate(raw, h.svc.Today().Location())
	if err != nil {
		writeError(w, fmt.Errorf("%w: date %q", domain.ErrInvalidInput, raw))
		return
	}
	writeJSON(w, http.StatusOK, relativeResponse{
		Date:  raw,
		Label: h.svc.FormatRelativeDate(date),
	})
}

type statusResponse struct {
	Ready             bool   `json:"ready"`
	Authenticated     bool   `json:"authenticated"`
	Online            bool   `json:"online"`
	SyncInProgress    bool   `json:"sync_in_progress"`
	ConsecutiveErrors int    `json:"consecutive_errors"`
	LastSyncAt        string `json:"last_sync_at,omitempty"`
	Generation        uint64 `json:"generation"`
	Source            string `json:"source"`
	UserDate          string `json:"user_date"`
}

func renderStatus(st app.State) statusResponse {
	return statusResponse{
		Ready:             st.Ready,
		Authenticated:     st.Authenticated,
		Online:            st.Online,
		SyncInProgress:    st.SyncInProgress,
		ConsecutiveErrors: st.ConsecutiveErrors,
		LastSyncAt:        formatInstant(st.LastSyncAt),
		Generation:        st.Generation,
		Source:            string(st.Snapshot.Source),
		UserDate:          st.Snapshot.UserDate,
	}
}

func (h *Handler) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, renderStatus(h.svc.Status()))
}

func (h *Handler) postRefresh(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.ForceSync(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderStatus(st))
}

type mockRequest struct {
	DateTime string `json:"datetime"`
}

func (h *Handler) postMock(w http.ResponseWriter, r *http.Request) {
	var req mockRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.DateTime == "" {
		writeError(w, fmt.Errorf("%w: datetime is required", domain.ErrInvalidInput))
		return
	}
	h.mock(w, r, req.DateTime)
}

func (h *Handler) deleteMock(w http.ResponseWriter, r *http.Request) {
	h.mock(w, r, "")
}

func (h *Handler) mock(w http.ResponseWriter, r *http.Request, iso string) {
	snap, err := h.svc.SetMockDateTime(r.Context(), iso)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RenderSnapshot(snap))
}

// DriftInfo is the public rendering of a drift report.
type DriftInfo struct {
	OffsetMS    int64 `json:"offset_ms"`
	ThresholdMS int64 `json:"threshold_ms"`
	Healthy     bool  `json:"healthy"`
}

// RenderDrift converts a drift report to its wire form.
func RenderDrift(r app.DriftReport) DriftInfo {
	return DriftInfo{
		OffsetMS:    r.Offset.Milliseconds(),
		ThresholdMS: r.Threshold.Milliseconds(),
		Healthy:     r.Healthy,
	}
}

func (h *Handler) getDrift(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.ClockDrift(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RenderDrift(report))
}

func (h *Handler) postSyncCheck(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.CheckSync(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) putTimezone(w http.ResponseWriter, r *http.Request) {
	var req protocol.TimezoneRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.UpdateTimezone(r.Context(), req.Timezone); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RenderSnapshot(h.svc.Snapshot()))
}

func (h *Handler) postDetectTimezone(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.DetectTimezone(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getTimezones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.svc.AvailableTimezones(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.TimezoneList{Timezones: zones})
}

func (h *Handler) getWeekInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.WeekInfo(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type sessionRequest struct {
	Token string `json:"token"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Subject       string `json:"subject,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

// putSession installs a bearer token and moves the facade to the resulting
// authentication state.
func (h *Handler) putSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	authenticated, err := h.sessions.SetToken(req.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	h.svc.SetAuthenticationStatus(r.Context(), authenticated)

	resp := sessionResponse{Authenticated: authenticated, Subject: h.sessions.Subject()}
	if exp, ok := h.sessions.ExpiresAt(); ok {
		resp.ExpiresAt = formatInstant(exp.UTC())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear()
	h.svc.SetAuthenticationStatus(r.Context(), false)
	w.WriteHeader(http.StatusNoContent)
}

func errBadBody(err error) error {
	return fmt.Errorf("%w: request body: %w", domain.ErrInvalidInput, err)
}
