// Package domaintest provides test doubles for the domain package.
package domaintest

import (
	"sync"
	"time"

	"github.com/aelexs/timesync/internal/domain"
)

// FakeClock is a deterministic, advanceable device clock for tests.
// Use Advance/Set to move the device date instead of creating new
// clock instances, so components that captured the clock see the change.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
}

// NewFakeClock creates a FakeClock set to the given time.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t}
}

// NewFakeClockOnDate creates a FakeClock at noon UTC on the given YYYY-MM-DD
// date. It panics on a malformed date; it is meant for test literals.
func NewFakeClockOnDate(date string) *FakeClock {
	d, err := domain.ParseDate(date, time.UTC)
	if err != nil {
		panic(err)
	}
	return NewFakeClock(d.Add(12 * time.Hour))
}

// Now returns the fake clock's current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the fake clock forward by the given duration.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set changes the fake clock to a specific time.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// Ensure FakeClock implements domain.Clock at compile time.
var _ domain.Clock = (*FakeClock)(nil)
