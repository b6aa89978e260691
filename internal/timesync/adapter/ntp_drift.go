package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"

	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/internal/timesync/app"
)

// Compile-time check: NTPDriftChecker satisfies app.DriftChecker.
var _ app.DriftChecker = (*NTPDriftChecker)(nil)

// NTPDriftChecker measures the device clock offset against an NTP server.
type NTPDriftChecker struct {
	server  string
	timeout time.Duration

	// QueryFunc replaces the network query in tests.
	QueryFunc func(server string, opts ntp.QueryOptions) (*ntp.Response, error)
}

func NewNTPDriftChecker(server string, timeout time.Duration) *NTPDriftChecker {
	if server == "" {
		server = domain.DefaultNTPServer
	}
	if timeout <= 0 {
		timeout = domain.NTPQueryTimeout
	}
	return &NTPDriftChecker{server: server, timeout: timeout, QueryFunc: ntp.QueryWithOptions}
}

// Offset returns how far the device clock is behind (positive) or ahead
// (negative) of the NTP server.
func (c *NTPDriftChecker) Offset(ctx context.Context) (time.Duration, error) {
	_, span := tracer.Start(ctx, "ntp.query")
	defer span.End()

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("%w: ntp query %s", domain.ErrTimeout, c.server)
	}

	resp, err := c.QueryFunc(c.server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("%w: ntp query %s: %w", domain.ErrUnavailable, c.server, err)
	}
	if err := resp.Validate(); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("%w: ntp response from %s: %w", domain.ErrUnavailable, c.server, err)
	}
	return resp.ClockOffset, nil
}
