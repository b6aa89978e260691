package app

import (
	"context"
	"fmt"
)

// SetOnline applies a connectivity transition. Coming back online clears the
// error streak, restarts the scheduler and forces a sync so data from before
// the outage is corrected at once. Going offline only stops the scheduler;
// the current snapshot stays in force.
func (s *Service) SetOnline(ctx context.Context, online bool) {
	s.mu.Lock()
	if s.online == online {
		s.mu.Unlock()
		return
	}
	s.online = online
	if online {
		s.consecutiveErrors = 0
		s.ceilingLogged = false
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "connectivity changed", "online", online)
	s.reschedule()

	if !online {
		return
	}
	if _, err := s.sync(ctx, syncForced); err != nil {
		s.logger.WarnContext(ctx, "recovery sync failed", "error", err)
	}
}

// WatchConnectivity feeds transitions from src into SetOnline until ctx is
// done or Destroy is called.
func (s *Service) WatchConnectivity(ctx context.Context, src ConnectivitySource) error {
	ctx, cancel := context.WithCancel(ctx)
	updates, err := src.Watch(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("watch connectivity: %w", err)
	}

	s.mu.Lock()
	s.watchCancels = append(s.watchCancels, cancel)
	s.mu.Unlock()

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case online, ok := <-updates:
				if !ok {
					return
				}
				s.SetOnline(ctx, online)
			}
		}
	}()
	return nil
}
