package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/craftrelay/backend/internal/session"
	"github.com/gorilla/websocket"
)

type client struct {
	conn *websocket.Conn
	send chan []byte

	// mu guards closed and serializes sends against close: every send to
	// the channel goes through trySend, so no goroutine can hit a closed
	// channel.
	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

// writePump drains the send channel into the socket. Per-subscriber order
// is the channel order; a write failure ends the pump and the connection.
func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// trySend queues data for the write pump. False means the client is closed
// or its buffer is full; the caller decides whether that warrants a detach.
func (c *client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Hub fans session events out to every attached viewer. Delivery is
// best-effort and independent per viewer: each has its own buffered send
// channel and write pump, so one slow socket never blocks the rest.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	store   *session.Store
}

func NewHub(store *session.Store) *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		store:   store,
	}
}

// Attach replays the current status, the full chat window, the roster and
// the vitals snapshot to the new viewer, in that order, then adds it to the
// live set. A viewer attaching between two publishes sees the latest
// snapshot rather than the history.
func (h *Hub) Attach(conn *websocket.Conn) *client {
	c := newClient(conn)

	replay := []WSMessage{
		{Type: MsgStatus, Payload: h.store.Status()},
		{Type: MsgChatHistory, Payload: h.store.ChatHistory()},
		{Type: MsgPlayerList, Payload: h.store.Players()},
		{Type: MsgStats, Payload: h.store.Vitals()},
	}
	for _, msg := range replay {
		c.enqueue(msg)
	}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	return c
}

func (h *Hub) Detach(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// session.Publisher implementation.

func (h *Hub) PublishStatus(st session.Status) {
	h.broadcast(WSMessage{Type: MsgStatus, Payload: st})
}

func (h *Hub) PublishChat(msg session.ChatMessage) {
	h.broadcast(WSMessage{Type: MsgChat, Payload: msg})
}

func (h *Hub) PublishPlayers(players []session.PlayerRecord) {
	if players == nil {
		players = []session.PlayerRecord{}
	}
	h.broadcast(WSMessage{Type: MsgPlayerList, Payload: players})
}

func (h *Hub) PublishVitals(v session.VitalsSnapshot) {
	h.broadcast(WSMessage{Type: MsgStats, Payload: v})
}

func (h *Hub) PublishError(message string) {
	h.broadcast(WSMessage{Type: MsgError, Payload: ErrorPayload{Message: message}})
}

func (h *Hub) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(data) {
			// Client can't keep up (or already closed), disconnect it
			log.Printf("ws client too slow, disconnecting")
			h.Detach(c)
		}
	}
}

// enqueue marshals and queues one message for a single viewer. Used for
// attach replay and per-viewer error reporting.
func (c *client) enqueue(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ws marshal error: %v", err)
		return
	}
	// Client too slow or gone, drop the message.
	c.trySend(data)
}
