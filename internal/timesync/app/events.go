package app

import (
	"log/slog"
	"sync"

	"github.com/aelexs/timesync/internal/domain"
)

// EventKind distinguishes notifications on the event bus.
type EventKind int

const (
	// EventSynced follows every committed authoritative snapshot.
	EventSynced EventKind = iota + 1
	// EventDayChanged precedes EventSynced when the user date moved.
	EventDayChanged
	// EventDegraded follows a downgrade to a device-clock snapshot on logout.
	EventDegraded
)

func (k EventKind) String() string {
	switch k {
	case EventSynced:
		return "synced"
	case EventDayChanged:
		return "day_changed"
	case EventDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners after the state it describes is in force.
type Event struct {
	Kind      EventKind
	Snapshot  domain.Snapshot
	DayChange *domain.DayChangeEvent // set for EventDayChanged
}

// Listener receives events synchronously on the goroutine that committed the
// state change, while that sync still holds the request gate. Listeners must
// not block and must not start syncs themselves; hand such work to another
// goroutine.
type Listener func(Event)

// ListenerID identifies a registered listener for removal.
type ListenerID uint64

type listenerEntry struct {
	id ListenerID
	fn Listener
}

type eventBus struct {
	mu        sync.RWMutex
	nextID    ListenerID
	listeners []listenerEntry
	logger    *slog.Logger
}

func newEventBus(logger *slog.Logger) *eventBus {
	return &eventBus{logger: logger}
}

func (b *eventBus) add(fn Listener) ListenerID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.listeners = append(b.listeners, listenerEntry{id: b.nextID, fn: fn})
	return b.nextID
}

func (b *eventBus) remove(id ListenerID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, l := range b.listeners {
		if l.id == id {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return true
		}
	}
	return false
}

func (b *eventBus) clear() {
	b.mu.Lock()
	b.listeners = nil
	b.mu.Unlock()
}

// publish calls every listener in registration order. A panicking listener
// is logged and skipped.
func (b *eventBus) publish(ev Event) {
	b.mu.RLock()
	listeners := make([]listenerEntry, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, l := range listeners {
		b.call(l, ev)
	}
}

func (b *eventBus) call(l listenerEntry, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("time event listener panicked",
				"listener_id", uint64(l.id),
				"event", ev.Kind.String(),
				"panic", r,
			)
		}
	}()
	l.fn(ev)
}
