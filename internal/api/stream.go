package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/aisleflow/internal/world"
)

const (
	maxStreamConns = 8
	writeWait      = 10 * time.Second
	sendBuffer     = 16
)

// Frame is one dashboard refresh pushed over the stream.
type Frame struct {
	Type      string        `json:"type"` // "report" or "complete"
	Tick      uint64        `json:"tick"`
	Positions []world.Coord `json:"positions"`
	MaxCount  int           `json:"max_count"`
	DeadSpots int           `json:"dead_spots"`
	Heatmap   [][]int       `json:"heatmap,omitempty"`
}

// Hub fans frames out to connected websocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
}

type streamClient struct {
	ws   *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*streamClient]struct{})}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues a frame for every client. Clients whose buffer is full
// are dropped rather than stalling the tick loop.
func (h *Hub) Broadcast(f Frame) {
	msg, err := json.Marshal(f)
	if err != nil {
		slog.Error("encode stream frame", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slog.Warn("stream client too slow, dropping")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) add(c *streamClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) >= maxStreamConns {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleStream upgrades to a websocket and pushes frames until the client leaves.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("stream upgrade failed", "error", err)
		return
	}

	c := &streamClient{ws: ws, send: make(chan []byte, sendBuffer)}
	if !s.hub.add(c) {
		ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many stream clients"))
		ws.Close()
		return
	}
	slog.Info("stream client connected", "clients", s.hub.Len())

	// Catch the client up with the current frame.
	var first Frame
	s.Eng.Do(func() { first = s.frame("report", false) })
	if msg, err := json.Marshal(first); err == nil {
		c.send <- msg
	}

	go c.writePump()
	c.readPump()
	s.hub.remove(c)
	slog.Info("stream client disconnected", "clients", s.hub.Len())
}

// readPump discards inbound messages and returns when the connection closes.
func (c *streamClient) readPump() {
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("stream read error", "error", err)
			}
			return
		}
	}
}

func (c *streamClient) writePump() {
	defer c.ws.Close()
	for msg := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	c.ws.WriteMessage(websocket.CloseMessage, []byte{})
}
