package httpserver

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/buchstabensalat/salad/internal/challenge"
)

// streamEvent is one message on a challenge stream.
type streamEvent struct {
	Type      string             `json:"type"` // snapshot | started | tick | warning | ended | stopped | solved
	Word      string             `json:"word,omitempty"`
	Challenge challenge.Snapshot `json:"challenge"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan streamEvent
}

// hub fans challenge events out to every stream open on a game.
type hub struct {
	mu    sync.Mutex
	rooms map[string]map[*wsClient]struct{}
}

func newHub() *hub {
	return &hub{rooms: make(map[string]map[*wsClient]struct{})}
}

func (h *hub) subscribe(gameID string, conn *websocket.Conn) *wsClient {
	c := &wsClient{conn: conn, send: make(chan streamEvent, 64)}
	h.mu.Lock()
	room, ok := h.rooms[gameID]
	if !ok {
		room = make(map[*wsClient]struct{})
		h.rooms[gameID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()
	go c.writePump()
	return c
}

func (h *hub) unsubscribe(gameID string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[gameID]
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, gameID)
	}
}

// sendTo queues ev for one client unless it already left.
func (h *hub) sendTo(gameID string, c *wsClient, ev streamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[gameID][c]; ok {
		c.send <- ev
	}
}

// broadcast never blocks; a client that cannot keep up misses events.
func (h *hub) broadcast(gameID string, ev streamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[gameID] {
		select {
		case c.send <- ev:
		default:
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for c := range room {
			close(c.send)
		}
		delete(h.rooms, id)
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()

	for ev := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

// readPump discards client messages and returns once the connection closes.
func (c *wsClient) readPump() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || origin == s.opts.ClientOrigin {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}
