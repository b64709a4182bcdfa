package hub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teslashibe/focus-booster/internal/log"
)

// Hub maintains the set of active clients and broadcasts messages to them.
// The latest message of each event type is replayed to new clients so a
// freshly opened page shows the current state without waiting for a change.
type Hub struct {
	name   string
	logger *slog.Logger

	clients    map[*Client]bool
	broadcast  chan keyed
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.RWMutex
	latest  map[string]Message
	running bool
}

type keyed struct {
	key string
	msg Message
}

// New creates a new Hub
func New(name string) *Hub {
	return &Hub{
		name:       name,
		logger:     log.Component("hub").With("hub", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan keyed, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		latest:     make(map[string]Message),
	}
}

// Run owns the client set until ctx is cancelled, then disconnects every
// client. Call it in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.running = false
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
		h.mu.Unlock()
		close(h.done)
		h.logger.Info("hub stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			for _, msg := range h.latest {
				client.send <- msg
			}
			h.mu.Unlock()
			h.logger.Info("client connected", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client disconnected", "clients", count)

		case k := <-h.broadcast:
			h.mu.Lock()
			if k.key != "" {
				h.latest[k.key] = k.msg
			}
			for client := range h.clients {
				select {
				case client.send <- k.msg:
				default:
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected clients. It never blocks; the
// message is dropped when the queue is full.
func (h *Hub) Broadcast(msg Message) {
	h.enqueue(keyed{msg: msg})
}

// BroadcastEvent encodes v in an Event envelope, broadcasts it and keeps it
// as the latest state for its type.
func (h *Hub) BroadcastEvent(kind string, v interface{}) error {
	data, err := EncodeEvent(kind, v)
	if err != nil {
		return err
	}
	h.enqueue(keyed{key: kind, msg: NewJSONMessage(data)})
	return nil
}

// BroadcastBinary broadcasts binary data.
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

func (h *Hub) enqueue(k keyed) {
	select {
	case h.broadcast <- k:
	default:
		h.logger.Warn("broadcast queue full, dropping message")
	}
}

// Latest returns the most recent message broadcast for an event type.
func (h *Hub) Latest(kind string) (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, ok := h.latest[kind]
	return msg, ok
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub loop is active.
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// join registers c, or reports false when the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
