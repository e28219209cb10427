package ws

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
)

var errUnknownConnection = errors.New("connection not registered")

// Hub holds all active WebSocket clients, keyed by connection id, and emits
// events to individual connections on behalf of the fanout dispatcher.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the Hub's lifecycle loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.connID] = client
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("ws hub: connection %s registered for user %d (%d total)", client.connID, client.userID, total)

		case client := <-h.unregister:
			// The send channel is never closed; a concurrent Emit that
			// captured the client before removal lands in the buffer of a
			// dead connection and is dropped with it.
			h.mu.Lock()
			if _, ok := h.clients[client.connID]; ok {
				delete(h.clients, client.connID)
				close(client.done)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("ws hub: connection %s gone for user %d (%d total)", client.connID, client.userID, total)
		}
	}
}

// Emit pushes one event to one connection. A stale connection id or a full
// send buffer returns an error; the caller treats delivery as best-effort.
func (h *Hub) Emit(connectionID, event string, payload any) error {
	evt, err := NewEvent(event, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	h.mu.RLock()
	client, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return errUnknownConnection
	}

	select {
	case client.send <- data:
		return nil
	default:
		return errors.New("send buffer full")
	}
}
