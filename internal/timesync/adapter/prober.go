package adapter

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/internal/timesync/app"
)

// Compile-time check: Prober satisfies app.ConnectivitySource.
var _ app.ConnectivitySource = (*Prober)(nil)

// DialFunc opens a connection; it matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Prober reports connectivity by dialing a TCP address on an interval.
// Only transitions are emitted, plus the initial state.
type Prober struct {
	address  string
	interval time.Duration
	timeout  time.Duration
	dial     DialFunc
	logger   *slog.Logger
}

// ProberConfig configures a Prober. Zero durations take the domain defaults.
type ProberConfig struct {
	Address  string // host:port
	Interval time.Duration
	Timeout  time.Duration
	Dial     DialFunc // defaults to net.Dialer
	Logger   *slog.Logger
}

func NewProber(cfg ProberConfig) *Prober {
	p := &Prober{
		address:  cfg.Address,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		dial:     cfg.Dial,
		logger:   cfg.Logger,
	}
	if p.interval <= 0 {
		p.interval = domain.ConnectivityProbeInterval
	}
	if p.timeout <= 0 {
		p.timeout = domain.ConnectivityProbeTimeout
	}
	if p.dial == nil {
		d := &net.Dialer{}
		p.dial = d.DialContext
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Watch probes immediately and then on every interval until ctx is done.
func (p *Prober) Watch(ctx context.Context) (<-chan bool, error) {
	out := make(chan bool, 1)
	go func() {
		defer close(out)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		first := true
		var online bool
		for {
			now := p.probe(ctx)
			if first || now != online {
				first = false
				online = now
				select {
				case out <- online:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out, nil
}

func (p *Prober) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dial(ctx, "tcp", p.address)
	if err != nil {
		p.logger.Debug("connectivity probe failed", "address", p.address, "error", err)
		return false
	}
	_ = conn.Close()
	return true
}
