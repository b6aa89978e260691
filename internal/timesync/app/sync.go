package app

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/internal/observability"
	"github.com/aelexs/timesync/pkg/protocol"
)

// syncMode selects how a sync treats the freshness window and connectivity.
type syncMode int

const (
	// syncStale refreshes only when the snapshot is older than the window.
	syncStale syncMode = iota
	// syncForced bypasses the freshness window.
	syncForced
	// syncCommand follows an explicit developer command: it bypasses the
	// freshness window and the offline short-circuit, and fails when the
	// session is anonymous.
	syncCommand
)

func (m syncMode) key() string {
	switch m {
	case syncForced:
		return "current-time/forced"
	case syncCommand:
		return "current-time/command"
	default:
		return "current-time"
	}
}

// Refresh brings the snapshot up to date if it is stale and returns the
// resulting state. Failures are absorbed: the best available snapshot is kept.
func (s *Service) Refresh(ctx context.Context) State {
	st, err := s.sync(ctx, syncStale)
	if err != nil {
		s.logger.DebugContext(ctx, "background sync failed", "error", err, "reason", domain.Reason(err))
	}
	return st
}

// ForceSync bypasses the freshness window and returns the sync error, if any,
// alongside the state that remains in force.
func (s *Service) ForceSync(ctx context.Context) (State, error) {
	return s.sync(ctx, syncForced)
}

// sync is the single-flight coordinator. Callers of the same mode share one
// round-trip, and round-trips of all modes run one at a time. A forced or
// command sync never joins a request that was already sent before it; it
// queues one new request behind it instead.
func (s *Service) sync(ctx context.Context, mode syncMode) (State, error) {
	s.mu.Lock()
	if skip, err := s.skipLocked(mode, true); skip {
		s.ensureSnapshotLocked()
		st := s.stateLocked()
		s.mu.Unlock()
		return st, err
	}
	s.mu.Unlock()

	ch := s.flight.DoChan(mode.key(), func() (any, error) {
		return s.roundTrip(ctx, mode)
	})

	select {
	case res := <-ch:
		st, _ := res.Val.(State)
		return st, res.Err
	case <-ctx.Done():
		return s.Status(), ctx.Err()
	}
}

// skipLocked reports whether a sync of mode must not reach the network, and
// the error to return in that case. queued is true on entry to sync, before
// the request gate: a fresh snapshot is then reused only while no request is
// in flight.
func (s *Service) skipLocked(mode syncMode, queued bool) (bool, error) {
	if !s.authenticated {
		if mode == syncCommand {
			return true, domain.ErrUnauthorized
		}
		return true, nil
	}
	if !s.online && mode != syncCommand {
		return true, nil
	}
	if mode == syncStale && !s.lastSyncAt.IsZero() &&
		s.clock.Now().Sub(s.lastSyncAt) < s.freshness {
		return !queued || s.inFlight == 0, nil
	}
	return false, nil
}

// roundTrip performs one request to the authority and commits its outcome.
// The request outlives the caller that started it so joined callers are not
// cancelled with it; it is bounded by the request timeout instead.
func (s *Service) roundTrip(parent context.Context, mode syncMode) (State, error) {
	s.requestGate <- struct{}{}
	defer func() { <-s.requestGate }()

	if mode != syncStale {
		// Later callers of this mode start a fresh flight from here on.
		s.flight.Forget(mode.key())
	}

	s.mu.Lock()
	if skip, err := s.skipLocked(mode, false); skip {
		s.ensureSnapshotLocked()
		st := s.stateLocked()
		s.mu.Unlock()
		return st, err
	}
	s.generation++
	gen := s.generation
	s.inFlight++
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.requestTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "timesync.sync")
	defer span.End()

	span.SetAttributes(attribute.Int64("timesync.generation", int64(gen)))
	syncRequestsTotal.Add(ctx, 1)

	logger := observability.WithTraceID(ctx, s.logger)

	raw, err := s.authority.CurrentTime(ctx)
	var snap domain.Snapshot
	if err == nil {
		snap, err = ParseSnapshot(raw)
		if err != nil {
			logger.ErrorContext(ctx, "time authority returned an invalid payload",
				"error", err, "payload", rawPayload(raw))
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		syncTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", domain.Reason(err))))
		return s.fail(ctx, gen, err), err
	}

	syncTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "ok")))
	return s.commit(ctx, gen, snap), nil
}

// commit installs snap unless a newer sync or a logout already superseded
// it, then notifies listeners with the day change first.
func (s *Service) commit(ctx context.Context, gen uint64, snap domain.Snapshot) State {
	now := s.clock.Now()

	s.mu.Lock()
	s.inFlight--
	if gen <= s.committedGen || !s.authenticated {
		st := s.stateLocked()
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "discarding superseded sync result", "generation", gen)
		return st
	}

	prev := s.lastAuthoritative
	s.current = &snap
	s.lastAuthoritative = &snap
	s.committedGen = gen
	s.consecutiveErrors = 0
	s.ceilingLogged = false
	s.lastSyncAt = now
	s.offset = snap.UTCDateTime.Sub(now)
	s.ready = true
	st := s.stateLocked()
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "time synced",
		"user_date", snap.UserDate,
		"timezone", snap.UserTimezone,
		"mock", snap.IsMockDate,
		"generation", gen,
	)

	if prev != nil && prev.UserDate != snap.UserDate {
		change := domain.DayChangeEvent{
			OldDate:  prev.UserDate,
			NewDate:  snap.UserDate,
			Timezone: snap.UserTimezone,
		}
		dayChangesTotal.Add(ctx, 1)
		s.logger.InfoContext(ctx, "user date changed",
			"old_date", change.OldDate,
			"new_date", change.NewDate,
			"timezone", change.Timezone,
		)
		s.bus.publish(Event{Kind: EventDayChanged, Snapshot: snap, DayChange: &change})
		s.invalidateDateCaches(ctx, change)
	}
	s.bus.publish(Event{Kind: EventSynced, Snapshot: snap})

	return st
}

// fail records a failed sync. Authentication failures keep local time
// without counting toward the error ceiling, and so do failures of a request
// already superseded by a commit or a logout.
func (s *Service) fail(ctx context.Context, gen uint64, err error) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight--
	s.ensureSnapshotLocked()

	if gen <= s.committedGen || !s.authenticated {
		s.logger.DebugContext(ctx, "ignoring failure of superseded sync", "generation", gen, "error", err)
		return s.stateLocked()
	}
	if domain.IsAuthFailure(err) {
		s.logger.DebugContext(ctx, "authority rejected session, staying on local time")
		return s.stateLocked()
	}

	s.consecutiveErrors++
	if s.consecutiveErrors >= s.maxErrors && !s.ceilingLogged {
		s.ceilingLogged = true
		s.logger.WarnContext(ctx, "time sync keeps failing, continuing on cached snapshot",
			"consecutive_errors", s.consecutiveErrors,
			"error", err,
		)
	}
	return s.stateLocked()
}

// ensureSnapshotLocked installs a fallback snapshot if none exists yet.
func (s *Service) ensureSnapshotLocked() {
	if s.current != nil {
		return
	}
	fb := s.fallbackSnapshot()
	s.current = &fb
	s.ready = true
}

func rawPayload(ct *protocol.CurrentTime) string {
	if ct == nil {
		return ""
	}
	if len(ct.Raw) > 0 {
		return string(ct.Raw)
	}
	b, err := json.Marshal(ct)
	if err != nil {
		return fmt.Sprintf("%+v", *ct)
	}
	return string(b)
}
