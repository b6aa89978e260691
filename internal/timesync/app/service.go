// Package app implements the time authority facade: one process-wide owner of
// the current time snapshot, refreshed in the background from the remote
// authority and degraded to the device clock whenever that is not possible.
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/aelexs/timesync/internal/calendar"
	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/pkg/protocol"
)

var tracer = otel.Tracer("timesync/app")

var (
	syncTotal         metric.Int64Counter
	syncRequestsTotal metric.Int64Counter
	dayChangesTotal   metric.Int64Counter
	mockCommandsTotal metric.Int64Counter
)

func init() {
	m := otel.Meter("timesync/app")

	syncTotal, _ = m.Int64Counter("timesync_sync_total",
		metric.WithDescription("Completed sync attempts by result"))
	syncRequestsTotal, _ = m.Int64Counter("timesync_sync_requests_total",
		metric.WithDescription("Network round-trips to the time authority"))
	dayChangesTotal, _ = m.Int64Counter("timesync_day_changes_total",
		metric.WithDescription("Observed transitions of the user date"))
	mockCommandsTotal, _ = m.Int64Counter("timesync_mock_commands_total",
		metric.WithDescription("Mock date commands by action and result"))
}

// TimeAuthority is the remote source of truth for the current date and time.
type TimeAuthority interface {
	CurrentTime(ctx context.Context) (*protocol.CurrentTime, error)
	SetMockDateTime(ctx context.Context, iso string) error
	ClearMockDateTime(ctx context.Context) error
	DetectTimezone(ctx context.Context, timezone string) (protocol.TimezoneResponse, error)
	UpdateTimezone(ctx context.Context, timezone string) error
	AvailableTimezones(ctx context.Context) ([]string, error)
	WeekInfo(ctx context.Context) (protocol.WeekInfo, error)
	SyncCheck(ctx context.Context, clientTime time.Time) (protocol.SyncCheckResponse, error)
}

// CacheInvalidator drops externally owned cache entries whose keys match a
// glob pattern. It returns the number of keys removed.
type CacheInvalidator interface {
	InvalidatePattern(ctx context.Context, pattern string) (int, error)
}

// DriftChecker measures the device clock offset against a reference clock.
type DriftChecker interface {
	Offset(ctx context.Context) (time.Duration, error)
}

// ConnectivitySource emits true when the network becomes reachable and false
// when it is lost. The channel is closed when ctx is done.
type ConnectivitySource interface {
	Watch(ctx context.Context) (<-chan bool, error)
}

// ServiceConfig holds the dependencies and tunables for Service.
// Zero durations and counts take the compiled defaults from domain.
type ServiceConfig struct {
	Authority TimeAuthority
	Cache     CacheInvalidator // optional
	Drift     DriftChecker     // optional
	Clock     domain.Clock
	Logger    *slog.Logger

	// DeviceTimezone resolves the device zone for fallback snapshots.
	// Defaults to domain.LocalTimezone.
	DeviceTimezone func() (string, *time.Location)

	Freshness      time.Duration
	Interval       time.Duration
	RequestTimeout time.Duration
	MaxErrors      int
	DriftThreshold time.Duration

	// InvalidatePatterns are key globs dropped on a day change; "{date}" is
	// replaced with the date that just ended.
	InvalidatePatterns []string

	WeekStart time.Weekday
	Locale    string
}

// State is a point-in-time copy of the synchronization state.
type State struct {
	Snapshot          domain.Snapshot
	LastSyncAt        time.Time // zero until the first authoritative sync
	Online            bool
	SyncInProgress    bool
	ConsecutiveErrors int
	Ready             bool
	Authenticated     bool
	Generation        uint64
}

// Service is the time authority facade. Reads never block on the network and
// never fail; refreshes run through a single-flight coordinator.
type Service struct {
	authority TimeAuthority
	cache     CacheInvalidator
	drift     DriftChecker
	clock     domain.Clock
	logger    *slog.Logger
	deviceTZ  func() (string, *time.Location)
	formatter calendar.Formatter

	freshness      time.Duration
	requestTimeout time.Duration
	maxErrors      int
	driftThreshold time.Duration
	patterns       []string
	weekStart      time.Weekday

	mu                sync.Mutex
	current           *domain.Snapshot
	lastAuthoritative *domain.Snapshot
	lastSyncAt        time.Time
	offset            time.Duration // authority UTC minus device clock at last commit
	online            bool
	inFlight          int
	consecutiveErrors int
	ceilingLogged     bool
	ready             bool
	initialized       bool
	authenticated     bool
	generation        uint64
	committedGen      uint64
	watchCancels      []context.CancelFunc

	flight      singleflight.Group
	requestGate chan struct{} // one authority round-trip at a time
	bus         *eventBus
	scheduler   *scheduler
	bgWG        sync.WaitGroup // owns background goroutines (cache invalidation, watchers)
}

// NewService creates a Service. It starts no goroutines until Initialize.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		authority:      cfg.Authority,
		cache:          cfg.Cache,
		drift:          cfg.Drift,
		clock:          cfg.Clock,
		logger:         cfg.Logger,
		deviceTZ:       cfg.DeviceTimezone,
		formatter:      calendar.NewFormatter(cfg.Locale),
		freshness:      cfg.Freshness,
		requestTimeout: cfg.RequestTimeout,
		maxErrors:      cfg.MaxErrors,
		driftThreshold: cfg.DriftThreshold,
		patterns:       cfg.InvalidatePatterns,
		weekStart:      cfg.WeekStart,
		online:         true,
		requestGate:    make(chan struct{}, 1),
	}
	if s.clock == nil {
		s.clock = domain.RealClock{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.deviceTZ == nil {
		s.deviceTZ = domain.LocalTimezone
	}
	if s.freshness <= 0 {
		s.freshness = domain.SyncFreshnessWindow
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = domain.SyncRequestTimeout
	}
	if s.maxErrors <= 0 {
		s.maxErrors = domain.MaxConsecutiveSyncErrors
	}
	if s.driftThreshold <= 0 {
		s.driftThreshold = domain.NTPDriftThreshold
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = domain.ResyncInterval
	}
	s.bus = newEventBus(s.logger)
	s.scheduler = newScheduler(interval, s.logger, func() {
		s.Refresh(context.Background())
	})
	return s
}

// Initialize seeds a fallback snapshot, marks the service ready and, for
// authenticated sessions, attempts one sync before starting the periodic
// scheduler. A second call is a no-op. Sync failures are logged, not returned.
func (s *Service) Initialize(ctx context.Context, authenticated bool) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	s.authenticated = authenticated
	if s.current == nil {
		fb := s.fallbackSnapshot()
		s.current = &fb
	}
	s.ready = true
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "time service initialized", "authenticated", authenticated)

	if !authenticated {
		return
	}
	if _, err := s.sync(ctx, syncStale); err != nil {
		s.logger.WarnContext(ctx, "initial sync failed, using local time", "error", err)
	}
	s.reschedule()
}

// Destroy stops the scheduler and connectivity watchers, waits for background
// work and removes every listener. The current snapshot is kept.
func (s *Service) Destroy(ctx context.Context) {
	s.mu.Lock()
	s.initialized = false
	cancels := s.watchCancels
	s.watchCancels = nil
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	s.scheduler.stopAndWait(ctx)
	s.bgWG.Wait()
	s.bus.clear()

	s.logger.InfoContext(ctx, "time service destroyed")
}

// Status returns a copy of the synchronization state.
func (s *Service) Status() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// AddEventListener registers fn for every state change notification.
func (s *Service) AddEventListener(fn Listener) ListenerID {
	return s.bus.add(fn)
}

// RemoveEventListener unregisters a listener. It reports whether id was known.
func (s *Service) RemoveEventListener(id ListenerID) bool {
	return s.bus.remove(id)
}

func (s *Service) stateLocked() State {
	st := State{
		LastSyncAt:        s.lastSyncAt,
		Online:            s.online,
		SyncInProgress:    s.inFlight > 0,
		ConsecutiveErrors: s.consecutiveErrors,
		Ready:             s.ready,
		Authenticated:     s.authenticated,
		Generation:        s.committedGen,
	}
	if s.current != nil {
		st.Snapshot = *s.current
	}
	return st
}

// reschedule restarts the periodic scheduler when the session is
// authenticated, online and initialized, and stops it otherwise.
func (s *Service) reschedule() {
	s.mu.Lock()
	eligible := s.initialized && s.authenticated && s.online
	s.mu.Unlock()

	if eligible {
		s.scheduler.start()
		return
	}
	s.scheduler.stop()
}
