package app

import (
	"time"

	"github.com/aelexs/timesync/internal/domain"
)

// Snapshot returns the snapshot in force. Before Initialize it computes a
// device-clock snapshot and logs a warning; it never fails.
func (s *Service) Snapshot() domain.Snapshot {
	s.mu.Lock()
	cur, ready := s.current, s.ready
	s.mu.Unlock()

	if !ready || cur == nil {
		s.logger.Warn("time read before initialize, using device clock")
		return s.fallbackSnapshot()
	}
	return *cur
}

// CurrentDate returns the user date as YYYY-MM-DD.
func (s *Service) CurrentDate() string {
	return s.Snapshot().UserDate
}

// CurrentDateTime returns the snapshot instant in the user's timezone.
func (s *Service) CurrentDateTime() time.Time {
	return s.Snapshot().UserDateTime
}

// UserTimezone returns the IANA zone of the snapshot.
func (s *Service) UserTimezone() string {
	return s.Snapshot().UserTimezone
}

// IsMockDate reports whether the authority is running on a simulated date.
func (s *Service) IsMockDate() bool {
	return s.Snapshot().IsMockDate
}

// IsReady reports whether any snapshot has been installed.
func (s *Service) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Now returns the authority's current instant, extrapolated from the last
// sync with the device clock. On a local snapshot it is the device clock.
func (s *Service) Now() time.Time {
	s.mu.Lock()
	offset := s.offset
	s.mu.Unlock()
	return s.clock.Now().Add(offset).UTC()
}
