package app

import (
	"context"
	"fmt"
	"time"

	"github.com/aelexs/timesync/internal/domain"
)

// DriftReport describes the device clock offset against NTP.
type DriftReport struct {
	Offset    time.Duration
	Threshold time.Duration
	Healthy   bool
}

// ClockDrift measures the device clock against the configured NTP server.
func (s *Service) ClockDrift(ctx context.Context) (DriftReport, error) {
	if s.drift == nil {
		return DriftReport{}, fmt.Errorf("%w: no drift checker", domain.ErrConfigRequired)
	}
	offset, err := s.drift.Offset(ctx)
	if err != nil {
		return DriftReport{}, fmt.Errorf("clock drift: %w", err)
	}
	abs := offset
	if abs < 0 {
		abs = -abs
	}
	report := DriftReport{
		Offset:    offset,
		Threshold: s.driftThreshold,
		Healthy:   abs < s.driftThreshold,
	}
	if !report.Healthy {
		s.logger.WarnContext(ctx, "device clock drift above threshold",
			"offset", offset, "threshold", s.driftThreshold)
	}
	return report, nil
}
