package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// every is a fixed-interval cron schedule. Unlike cron.Every it does not
// round to whole seconds.
type every time.Duration

func (e every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

// scheduler runs job on a fixed interval. start replaces any running
// schedule so restarts never overlap.
type scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	job      func()
	logger   *slog.Logger
	cron     *cron.Cron
	draining []context.Context // Stop contexts of replaced schedules
}

func newScheduler(interval time.Duration, logger *slog.Logger, job func()) *scheduler {
	return &scheduler{interval: interval, job: job, logger: logger}
}

func (sc *scheduler) start() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.stopLocked()

	l := cronLogger{logger: sc.logger}
	c := cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	c.Schedule(every(sc.interval), cron.FuncJob(sc.job))
	c.Start()
	sc.cron = c

	sc.logger.Debug("periodic sync scheduled", "interval", sc.interval)
}

func (sc *scheduler) stop() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.stopLocked()
}

func (sc *scheduler) stopLocked() {
	if sc.cron == nil {
		return
	}
	pending := sc.draining[:0]
	for _, done := range sc.draining {
		if done.Err() == nil {
			pending = append(pending, done)
		}
	}
	sc.draining = append(pending, sc.cron.Stop())
	sc.cron = nil
}

// stopAndWait stops the schedule and waits for running jobs of this and
// every replaced schedule, or until ctx is done.
func (sc *scheduler) stopAndWait(ctx context.Context) {
	sc.mu.Lock()
	sc.stopLocked()
	draining := sc.draining
	sc.draining = nil
	sc.mu.Unlock()

	for _, done := range draining {
		select {
		case <-done.Done():
		case <-ctx.Done():
			return
		}
	}
}

func (sc *scheduler) running() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.cron != nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
