package app

import (
	"context"
	"time"
)

// SetAuthenticationStatus applies an AUTH transition. Logging in while
// initialized syncs immediately and starts the scheduler. Logging out stops
// the scheduler and downgrades to a device-clock snapshot; results of syncs
// still in flight are discarded. The service stays ready either way.
func (s *Service) SetAuthenticationStatus(ctx context.Context, authenticated bool) {
	s.mu.Lock()
	if s.authenticated == authenticated {
		s.mu.Unlock()
		return
	}
	s.authenticated = authenticated
	initialized := s.initialized

	if authenticated {
		s.mu.Unlock()
		s.logger.InfoContext(ctx, "session authenticated")
		if !initialized {
			return
		}
		s.Refresh(ctx)
		s.reschedule()
		return
	}

	fb := s.fallbackSnapshot()
	s.current = &fb
	s.lastAuthoritative = nil
	s.lastSyncAt = time.Time{}
	s.offset = 0
	s.consecutiveErrors = 0
	s.ceilingLogged = false
	s.committedGen = s.generation
	s.ready = true
	s.mu.Unlock()

	s.scheduler.stop()
	s.logger.InfoContext(ctx, "session ended, using local time", "user_date", fb.UserDate)
	s.bus.publish(Event{Kind: EventDegraded, Snapshot: fb})
}
