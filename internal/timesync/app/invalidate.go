package app

import (
	"context"
	"strings"

	"github.com/aelexs/timesync/internal/domain"
)

const datePlaceholder = "{date}"

// invalidateDateCaches drops date-keyed cache entries for the day that just
// ended. It runs in the background and never blocks listeners.
func (s *Service) invalidateDateCaches(ctx context.Context, change domain.DayChangeEvent) {
	if s.cache == nil || len(s.patterns) == 0 {
		return
	}

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), domain.CacheInvalidationTimeout)
		defer cancel()

		for _, p := range s.patterns {
			pattern := strings.ReplaceAll(p, datePlaceholder, change.OldDate)
			n, err := s.cache.InvalidatePattern(ctx, pattern)
			if err != nil {
				s.logger.WarnContext(ctx, "cache invalidation failed",
					"pattern", pattern, "error", err)
				continue
			}
			s.logger.DebugContext(ctx, "cache invalidated", "pattern", pattern, "keys", n)
		}
	}()
}
