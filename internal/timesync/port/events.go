package port

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/internal/errmap"
	"github.com/aelexs/timesync/internal/timesync/app"
	"github.com/aelexs/timesync/pkg/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

// eventSource is the subset of the facade the stream subscribes to.
type eventSource interface {
	Snapshot() domain.Snapshot
	AddEventListener(fn app.Listener) app.ListenerID
	RemoveEventListener(id app.ListenerID) bool
}

// EventStream pushes facade events to WebSocket clients. Each connection
// starts with a hello frame carrying the current snapshot.
type EventStream struct {
	src      eventSource
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[*streamConn]struct{}
	closed bool
	wg     sync.WaitGroup // one per active connection handler
}

// NewEventStream creates an EventStream over src.
func NewEventStream(src eventSource, logger *slog.Logger) *EventStream {
	return &EventStream{
		src:    src,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Developer surface bound to the local machine.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*streamConn]struct{}),
	}
}

// ServeHTTP upgrades the request and streams events until either side closes.
func (s *EventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.track() {
		writeError(w, domain.ErrUnavailable)
		return
	}
	defer s.wg.Done()

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.DebugContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	c := &streamConn{
		id:     uuid.NewString(),
		ws:     ws,
		send:   make(chan *protocol.Frame, sendBuffer),
		done:   make(chan struct{}),
		logger: s.logger,
	}
	if !s.add(c) {
		c.shutdown(errmap.CloseServerShutdown)
		return
	}
	defer s.remove(c)

	hello, err := protocol.NewFrame(protocol.FrameTypeHello, protocol.Hello{
		ClientID: c.id,
		Current:  RenderSnapshot(s.src.Snapshot()),
	})
	if err == nil {
		c.deliver(hello)
	}

	id := s.src.AddEventListener(func(ev app.Event) {
		f, err := eventFrame(ev)
		if err != nil {
			s.logger.Error("encode event frame", "event", ev.Kind.String(), "error", err)
			return
		}
		c.deliver(f)
	})
	defer s.src.RemoveEventListener(id)

	s.logger.InfoContext(r.Context(), "event stream connected", "client_id", c.id)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()

	c.readPump()
	close(c.done)
	<-writerDone
	c.shutdown(errmap.ToWebSocketClose(nil))

	s.logger.InfoContext(r.Context(), "event stream disconnected", "client_id", c.id)
}

// Close sends a going-away close to every client and waits for their
// handlers to return, or for ctx to expire. New upgrades are refused.
func (s *EventStream) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	conns := make([]*streamConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.shutdown(errmap.CloseServerShutdown)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clients returns the number of connected clients.
func (s *EventStream) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *EventStream) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *EventStream) add(c *streamConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *EventStream) remove(c *streamConn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

type streamConn struct {
	id        string
	ws        *websocket.Conn
	send      chan *protocol.Frame
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// deliver queues f without blocking the publishing goroutine. A client that
// cannot keep up is disconnected.
func (c *streamConn) deliver(f *protocol.Frame) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- f:
	default:
		c.logger.Warn("event stream client too slow, disconnecting", "client_id", c.id)
		c.shutdown(errmap.CloseSlowConsumer)
	}
}

// shutdown writes a close frame once and closes the socket, which unblocks
// the read pump.
func (c *streamConn) shutdown(wc errmap.WebSocketClose) {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(wc.Code, wc.Reason)
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *streamConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case f := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(f); err != nil {
				c.logger.Debug("event stream write failed", "client_id", c.id, "error", err)
				_ = c.ws.Close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = c.ws.Close()
				return
			}
		}
	}
}

// readPump consumes control frames until the connection fails. The stream is
// server-to-client only; data frames from clients are discarded.
func (c *streamConn) readPump() {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("event stream read failed", "client_id", c.id, "error", err)
			}
			return
		}
	}
}
