// Package hub pushes the live bookmark list and notices to WebSocket clients.
package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/tabmark/internal/domain"
	"github.com/MrSnakeDoc/tabmark/internal/logger"
	"github.com/MrSnakeDoc/tabmark/internal/syncer"
)

const (
	EventBookmarks = "bookmarks"
	EventNotice    = "notice"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 32
)

// Source is the read side of the synchronizer.
type Source interface {
	List() []domain.Bookmark
	Loading() bool
	State() syncer.State
	Changes() <-chan struct{}
}

// Snapshot is the list as shown to clients.
type Snapshot struct {
	Loading   bool              `json:"loading"`
	State     string            `json:"state"`
	Bookmarks []domain.Bookmark `json:"bookmarks"`
}

// SnapshotOf reads the current state of src.
func SnapshotOf(src Source) Snapshot {
	list := src.List()
	if list == nil {
		list = []domain.Bookmark{}
	}
	return Snapshot{Loading: src.Loading(), State: src.State().String(), Bookmarks: list}
}

// Envelope wraps every message sent to a client.
type Envelope struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans out snapshots and notices to every connected client.
type Hub struct {
	src      Source
	logger   logger.Logger
	upgrader websocket.Upgrader
	now      func() time.Time

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
}

// New creates a hub that pushes snapshots of src to its clients. Call Run
// to start forwarding changes.
func New(src Source, log logger.Logger) *Hub {
	return &Hub{
		src:    src,
		logger: log,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: writeWait,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// Run broadcasts a snapshot after every change of the source until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.src.Changes():
			h.Broadcast(EventBookmarks, SnapshotOf(h.src))
		}
	}
}

// Notify pushes a notice to every client.
func (h *Hub) Notify(n domain.Notice) {
	h.Broadcast(EventNotice, n)
}

// Broadcast sends one message to every client. Clients that cannot keep up
// are disconnected.
func (h *Hub) Broadcast(kind string, data any) {
	msg, err := h.encode(kind, data)
	if err != nil {
		h.logger.Error("failed to encode hub message", logger.String("type", kind), logger.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("websocket client too slow, dropping", logger.String("client_id", id))
			h.removeLocked(id)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id := range h.clients {
		h.removeLocked(id)
	}
}

// ServeWS upgrades the request and streams messages to it, starting with
// the current snapshot.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", logger.Error(err))
		return
	}

	first, err := h.encode(EventBookmarks, SnapshotOf(h.src))
	if err != nil {
		h.logger.Error("failed to encode snapshot", logger.Error(err))
		_ = conn.Close()
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	c.send <- first

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("websocket client connected", logger.String("client_id", c.id), logger.Int("total", total))

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) encode(kind string, data any) ([]byte, error) {
	return json.Marshal(Envelope{Type: kind, Data: data, Timestamp: h.now().Unix()})
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(id)
}

func (h *Hub) removeLocked(id string) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	close(c.send)
}

// readPump only watches for the peer going away; clients do not send commands.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c.id)
		_ = c.conn.Close()
		h.logger.Debug("websocket client disconnected", logger.String("client_id", c.id))
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", logger.String("client_id", c.id), logger.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
