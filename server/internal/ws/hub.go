package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/decisionstack/decisionstack/server/internal/api"
	"github.com/decisionstack/decisionstack/server/internal/store"
)

const (
	writeTimeout = 10 * time.Second

	// A dashboard that misses pongs for idleTimeout is gone.
	idleTimeout  = 60 * time.Second
	pingInterval = idleTimeout * 9 / 10

	// queueDepth snapshots may wait per dashboard before it is dropped as
	// too slow.
	queueDepth = 16

	// Dashboards only send control frames.
	maxInboundBytes = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Any origin; restrict at the reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventSnapshot is the only event the hub emits.
const EventSnapshot = "snapshot"

// Message is the envelope of every frame pushed to a dashboard.
type Message struct {
	Event string               `json:"event"`
	Data  api.SnapshotResponse `json:"data"`
}

// Hub pushes the decision snapshot (health, latest report per source, alert
// count) to every subscribed dashboard each interval.
type Hub struct {
	store    *store.Store
	alerts   api.AlertSource
	interval time.Duration

	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	conn  *websocket.Conn
	queue chan []byte
}

// New creates a Hub that reads from st and pushes every interval.
// al may be nil.
func New(st *store.Store, al api.AlertSource, interval time.Duration) *Hub {
	return &Hub{
		store:    st,
		alerts:   al,
		interval: interval,
		subs:     make(map[*subscriber]struct{}),
	}
}

// Run pushes snapshots until ctx is cancelled, then disconnects every
// dashboard.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.disconnectAll()
			return
		case <-t.C:
			h.publish()
		}
	}
}

// ServeHTTP subscribes a dashboard. The current snapshot is sent first so a
// fresh dashboard does not wait a full interval for decisions. Blocks until
// the dashboard disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("ws: upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	sub := &subscriber{conn: conn, queue: make(chan []byte, queueDepth)}
	// The queue is empty, so this never blocks.
	if frame, err := h.snapshotFrame(); err == nil {
		sub.queue <- frame
	}
	h.subscribe(sub)
	defer h.unsubscribe(sub)

	go sub.deliver()
	sub.awaitClose()
}

// Count returns the number of subscribed dashboards.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) subscribe(s *subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(s)
}

// dropLocked removes s and closes its queue once. Callers hold h.mu.
func (h *Hub) dropLocked(s *subscriber) {
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.queue)
	}
}

// publish queues one snapshot per dashboard. The snapshot is built once per
// tick and skipped when nobody listens. Queues are written under the lock so
// unsubscribe cannot close one mid-send.
func (h *Hub) publish() {
	if h.Count() == 0 {
		return
	}
	frame, err := h.snapshotFrame()
	if err != nil {
		slog.Error("ws: encode snapshot", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.queue <- frame:
		default:
			slog.Warn("ws: dashboard too slow, disconnecting", "remote", s.conn.RemoteAddr().String())
			h.dropLocked(s)
		}
	}
}

func (h *Hub) snapshotFrame() ([]byte, error) {
	return json.Marshal(Message{
		Event: EventSnapshot,
		Data:  api.BuildSnapshot(h.store, h.alerts),
	})
}

func (h *Hub) disconnectAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		h.dropLocked(s)
	}
}

// deliver writes queued snapshots and keepalive pings until the queue is
// closed or a write fails.
func (s *subscriber) deliver() {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.queue:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ping.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// awaitClose consumes inbound frames so pongs and close frames are handled.
// It returns when the dashboard goes away or stops answering pings.
func (s *subscriber) awaitClose() {
	defer s.conn.Close()
	s.conn.SetReadLimit(maxInboundBytes)
	s.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
