// Package live streams engagement events to connected admin dashboards.
package live

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"plaiful/internal/repository"
)

const clientBuffer = 32

type Event struct {
	Slug string    `json:"slug"`
	Kind string    `json:"kind"`
	At   time.Time `json:"at"`
}

type client struct {
	send chan Event
}

// Hub fans events out to registered clients. A client whose buffer is full
// is dropped instead of blocking the publisher.
type Hub struct {
	clients map[string]*client
	mutex   sync.RWMutex
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// Register adds a client and returns its id and event stream. The stream is
// closed on Unregister, on Close, or when the client falls behind.
func (h *Hub) Register() (string, <-chan Event) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	id := uuid.NewString()
	c := &client{send: make(chan Event, clientBuffer)}
	if h.closed {
		close(c.send)
		return id, c.send
	}
	h.clients[id] = c
	return id, c.send
}

func (h *Hub) Unregister(id string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if c, ok := h.clients[id]; ok {
		close(c.send)
		delete(h.clients, id)
	}
}

// Broadcast delivers e to every client without blocking and returns the
// number of clients that received it.
func (h *Hub) Broadcast(e Event) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	delivered := 0
	for id, c := range h.clients {
		select {
		case c.send <- e:
			delivered++
		default:
			close(c.send)
			delete(h.clients, id)
		}
	}
	return delivered
}

// NotifyEngagement publishes a counter increment.
func (h *Hub) NotifyEngagement(slug string, kind repository.Counter, at time.Time) {
	h.Broadcast(Event{Slug: slug, Kind: string(kind), At: at.UTC()})
}

func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
	h.closed = true
}
