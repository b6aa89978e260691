package app

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/internal/observability"
)

// SetMockDateTime pins the authority to a simulated instant, or releases it
// when iso is empty, then forces a sync so the effect is visible on return.
// Unlike background syncs, every failure is returned wrapped in
// ErrCommandFailed.
func (s *Service) SetMockDateTime(ctx context.Context, iso string) (domain.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "timesync.mock")
	defer span.End()

	action := "set"
	if iso == "" {
		action = "clear"
	}
	span.SetAttributes(attribute.String("timesync.mock.action", action))
	logger := observability.WithTraceID(ctx, s.logger)

	snap, err := s.mock(ctx, iso)
	mockCommandsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("result", domain.Reason(err)),
	))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WarnContext(ctx, "mock date command failed", "action", action, "error", err)
		return domain.Snapshot{}, fmt.Errorf("%w: %w", domain.ErrCommandFailed, err)
	}

	logger.InfoContext(ctx, "mock date command applied",
		"action", action,
		"mock_datetime", iso,
		"user_date", snap.UserDate,
		"is_mock_date", snap.IsMockDate,
	)
	return snap, nil
}

func (s *Service) mock(ctx context.Context, iso string) (domain.Snapshot, error) {
	s.mu.Lock()
	authenticated := s.authenticated
	s.mu.Unlock()
	if !authenticated {
		return domain.Snapshot{}, domain.ErrUnauthorized
	}

	if iso != "" {
		if _, err := ParseMockInstant(iso); err != nil {
			return domain.Snapshot{}, err
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	var err error
	if iso == "" {
		err = s.authority.ClearMockDateTime(reqCtx)
	} else {
		err = s.authority.SetMockDateTime(reqCtx, iso)
	}
	if err != nil {
		return domain.Snapshot{}, err
	}

	st, err := s.sync(ctx, syncCommand)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("resync after mock: %w", err)
	}
	return st.Snapshot, nil
}

// ParseMockInstant accepts an RFC 3339 instant, a local date-time without
// offset, or a bare date.
func ParseMockInstant(iso string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, localDateTimeLayout, domain.DateLayout} {
		if t, err := time.Parse(layout, iso); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: mock datetime %q is not ISO-8601", domain.ErrInvalidInput, iso)
}
