// Package live pushes leaderboard changes to display pages over WebSockets.
package live

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	TypeDrivers = "drivers"
	TypeTrack   = "track"
	TypeExport  = "export"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 16
)

type Message struct {
	Type string `json:"type"`
	Body any    `json:"body,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to every connected client. A client whose send
// buffer is full is dropped instead of blocking the publisher.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	onChange func(clients int)
}

// NewHub creates a hub. onChange, if not nil, is called with the number of
// connected clients whenever it changes.
func NewHub(onChange func(clients int)) *Hub {
	return &Hub{
		clients:  make(map[*client]struct{}),
		onChange: onChange,
	}
}

func (h *Hub) Publish(messageType string, body any) {
	data, err := json.Marshal(Message{Type: messageType, Body: body})
	if err != nil {
		logrus.WithError(err).Errorf("Could not encode live %s message", messageType)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			logrus.Warnf("Live client %s is too slow, disconnecting", c.conn.RemoteAddr())
			h.removeLocked(c)
		}
	}
}

func (h *Hub) NumClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Handler upgrades the request to a WebSocket. initial is called while new
// publishes are held back, so the messages it returns reach the client
// before any update made after them.
func (h *Hub) Handler(initial func() []Message) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithError(err).Debug("Could not upgrade live connection")
			return
		}

		c := &client{
			conn: conn,
			send: make(chan []byte, sendBuffer),
		}

		if !h.register(c, initial) {
			conn.Close()
			return
		}

		logrus.Debugf("Live client connected: %s", conn.RemoteAddr())

		go h.writePump(c)
		h.readPump(c)
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true

	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) register(c *client, initial func() []Message) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	if initial != nil {
		for _, msg := range initial() {
			data, err := json.Marshal(msg)
			if err != nil {
				logrus.WithError(err).Errorf("Could not encode live %s message", msg.Type)
				continue
			}

			select {
			case c.send <- data:
			default:
			}
		}
	}

	h.clients[c] = struct{}{}
	h.notifyLocked()

	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	close(c.send)
	h.notifyLocked()
}

func (h *Hub) notifyLocked() {
	if h.onChange != nil {
		h.onChange(len(h.clients))
	}
}

// readPump discards anything the client sends and returns once the
// connection fails.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).Debug("Live client closed unexpectedly")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
