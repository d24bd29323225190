package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/gesturegenie/internal/detector"
	"github.com/ayusman/gesturegenie/internal/genie"
)

const (
	writeTimeout = 5 * time.Second
	clientBuffer = 64
	maxMessage   = 4096
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message types on the events socket.
const (
	TypeNote = "note"
	TypeHand = "hand"
	TypeKey  = "key"
)

// NoteMessage is pushed whenever a note starts or stops.
type NoteMessage struct {
	Type   string       `json:"type"`
	Slot   int          `json:"slot"`
	Note   int          `json:"note"`
	Pitch  int          `json:"pitch"`
	Down   bool         `json:"down"`
	Source genie.Source `json:"source"`
	At     int64        `json:"at"`
}

// HandMessage is pushed for every processed frame.
type HandMessage struct {
	Type      string             `json:"type"`
	Hand      string             `json:"hand"`
	ThumbOpen bool               `json:"thumb_open"`
	Pressed   [4]bool            `json:"pressed"`
	Points    []detector.Point3D `json:"points"`
	At        int64              `json:"at"`
}

// KeyMessage is sent by clients to press buttons from the keyboard.
type KeyMessage struct {
	Type   string `json:"type"`
	Key    string `json:"key"`
	Down   bool   `json:"down"`
	Repeat bool   `json:"repeat"`
}

// KeyHandler receives keyboard input from clients.
type KeyHandler interface {
	HandleKey(key string, down, repeat bool)
}

// ClientObserver is told when clients come and go.
type ClientObserver interface {
	ClientConnected()
	ClientDisconnected()
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans note and hand messages out to websocket clients and forwards
// their key messages to a KeyHandler.
type Hub struct {
	keys     KeyHandler
	observer ClientObserver
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates a Hub. keys and observer may be nil.
func NewHub(keys KeyHandler, observer ClientObserver, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		keys:     keys,
		observer: observer,
		logger:   logger,
		clients:  make(map[*client]struct{}),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	conn.SetReadLimit(maxMessage)

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.register(c)

	done := make(chan struct{})
	go func() {
		h.writePump(c)
		close(done)
	}()

	h.readLoop(c)
	h.unregister(c)
	<-done
	conn.Close()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishNote sends a note event to every client. It has the genie.Observer
// signature.
func (h *Hub) PublishNote(e genie.NoteEvent) {
	h.broadcast(NoteMessage{
		Type:   TypeNote,
		Slot:   e.Slot,
		Note:   e.Note,
		Pitch:  e.Pitch,
		Down:   e.Down,
		Source: e.Source,
		At:     e.At.UnixMilli(),
	})
}

// PublishHand sends a hand update to every client.
func (h *Hub) PublishHand(m HandMessage) {
	m.Type = TypeHand
	h.broadcast(m)
}

func (h *Hub) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("encode event", "err", err)
		return
	}

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Slow client: drop rather than stall the pipeline.
			h.logger.Debug("dropping event for slow client", "remote", c.conn.RemoteAddr().String())
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	if h.observer != nil {
		h.observer.ClientConnected()
	}
	h.logger.Debug("events client connected", "remote", c.conn.RemoteAddr().String())
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	if h.observer != nil {
		h.observer.ClientDisconnected()
	}
	h.logger.Debug("events client disconnected", "remote", c.conn.RemoteAddr().String())
}

func (h *Hub) writePump(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			// Unblocks readLoop.
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

func (h *Hub) readLoop(c *client) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg KeyMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("ignoring malformed client message", "err", err)
			continue
		}
		if msg.Type != TypeKey || msg.Key == "" {
			continue
		}
		if h.keys != nil {
			h.keys.HandleKey(msg.Key, msg.Down, msg.Repeat)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeTimeout))
		c.conn.Close()
	}
}
