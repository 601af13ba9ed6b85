package realtime

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is an invalidation signal for one user's row in a table.
// Subscribers must treat it as a trigger only and re-read the
// authoritative store; the event carries no data payload to trust.
type Event struct {
	Table  string `json:"table"`
	UserID int64  `json:"user_id"`
}

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is bearer-token authenticated; origin does not gate access.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	id     string
	userID int64
	conn   *websocket.Conn
	send   chan Event
}

type subscriber struct {
	id     string
	userID int64
	ch     chan Event
}

// Hub fans invalidation events out to connected websocket clients and
// to in-process subscribers, filtered by user id.
type Hub struct {
	mu          sync.RWMutex
	clients     map[string]*client
	subscribers map[string]*subscriber
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients:     make(map[string]*client),
		subscribers: make(map[string]*subscriber),
	}
}

// Publish delivers an event to every websocket client and in-process
// subscriber registered for the event's user. Slow consumers are
// skipped rather than blocking the publisher.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if c.userID != event.UserID {
			continue
		}
		select {
		case c.send <- event:
		default:
		}
	}

	for _, s := range h.subscribers {
		if s.userID != event.UserID {
			continue
		}
		select {
		case s.ch <- event:
		default:
		}
	}
}

// Subscribe registers an in-process listener for one user's events.
// The returned cancel function must be called to release the
// subscription; it closes the channel.
func (h *Hub) Subscribe(userID int64) (<-chan Event, func()) {
	s := &subscriber{
		id:     uuid.New().String(),
		userID: userID,
		ch:     make(chan Event, sendBufferSize),
	}

	h.mu.Lock()
	h.subscribers[s.id] = s
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[s.id]; ok {
			delete(h.subscribers, s.id)
			close(s.ch)
		}
		h.mu.Unlock()
	}

	return s.ch, cancel
}

// Shutdown closes every websocket connection and in-process
// subscription. Client cleanup finishes in each connection's read
// loop once the close is observed.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.clients {
		c.conn.Close()
	}
	for id, s := range h.subscribers {
		delete(h.subscribers, id)
		close(s.ch)
	}
}

// ServeWS upgrades the request to a websocket connection and streams
// the user's events until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID int64) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}

	c := &client{
		id:     uuid.New().String(),
		userID: userID,
		conn:   conn,
		send:   make(chan Event, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards inbound frames; the stream is one-way. It returns
// when the client disconnects, which unregisters the client.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c.id)
		h.mu.Unlock()
		close(c.send)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	for event := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(event); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
