package app

import (
	"context"
	"fmt"

	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/pkg/protocol"
)

// DetectTimezone reports the device zone to the authority. When the
// authority adopts it, the snapshot is resynced immediately.
func (s *Service) DetectTimezone(ctx context.Context) (protocol.TimezoneResponse, error) {
	if err := s.requireAuth(); err != nil {
		return protocol.TimezoneResponse{}, err
	}
	name, _ := s.deviceTZ()

	reqCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	resp, err := s.authority.DetectTimezone(reqCtx, name)
	if err != nil {
		return protocol.TimezoneResponse{}, fmt.Errorf("detect timezone: %w", err)
	}
	if resp.Changed {
		s.logger.InfoContext(ctx, "user timezone updated from device", "timezone", resp.Timezone)
		if _, err := s.sync(ctx, syncForced); err != nil {
			return resp, fmt.Errorf("resync after timezone change: %w", err)
		}
	}
	return resp, nil
}

// UpdateTimezone sets the user's zone explicitly and resyncs.
func (s *Service) UpdateTimezone(ctx context.Context, timezone string) error {
	if _, err := domain.LoadTimezone(timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", timezone, err)
	}
	if err := s.requireAuth(); err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	if err := s.authority.UpdateTimezone(reqCtx, timezone); err != nil {
		return fmt.Errorf("update timezone: %w", err)
	}
	if _, err := s.sync(ctx, syncForced); err != nil {
		return fmt.Errorf("resync after timezone change: %w", err)
	}
	return nil
}

// AvailableTimezones lists the zones the authority accepts.
func (s *Service) AvailableTimezones(ctx context.Context) ([]string, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	reqCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	zones, err := s.authority.AvailableTimezones(reqCtx)
	if err != nil {
		return nil, fmt.Errorf("list timezones: %w", err)
	}
	return zones, nil
}

// WeekInfo fetches the authority's view of the current week.
func (s *Service) WeekInfo(ctx context.Context) (protocol.WeekInfo, error) {
	if err := s.requireAuth(); err != nil {
		return protocol.WeekInfo{}, err
	}
	reqCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	info, err := s.authority.WeekInfo(reqCtx)
	if err != nil {
		return protocol.WeekInfo{}, fmt.Errorf("week info: %w", err)
	}
	return info, nil
}

// CheckSync compares the device clock with the authority. When the
// authority reports a mismatch the snapshot is corrected with a forced sync.
func (s *Service) CheckSync(ctx context.Context) (protocol.SyncCheckResponse, error) {
	if err := s.requireAuth(); err != nil {
		return protocol.SyncCheckResponse{}, err
	}
	reqCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	resp, err := s.authority.SyncCheck(reqCtx, s.clock.Now())
	if err != nil {
		return protocol.SyncCheckResponse{}, fmt.Errorf("sync check: %w", err)
	}
	if !resp.InSync {
		s.logger.InfoContext(ctx, "client clock out of sync, resyncing",
			"drift_seconds", resp.DriftSeconds)
		if _, err := s.sync(ctx, syncForced); err != nil {
			return resp, fmt.Errorf("resync after drift: %w", err)
		}
	}
	return resp, nil
}

func (s *Service) requireAuth() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated {
		return domain.ErrUnauthorized
	}
	return nil
}
