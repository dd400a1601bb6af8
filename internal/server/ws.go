package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/medsim/epitrainer/internal/training"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StateHandler broadcasts the live training state via WebSocket.
type StateHandler struct {
	controller *training.Controller
	clients    map[*websocket.Conn]bool
	mu         sync.RWMutex
}

// NewStateHandler creates a StateHandler over the given controller and
// starts its broadcast loop.
func NewStateHandler(c *training.Controller) *StateHandler {
	h := &StateHandler{
		controller: c,
		clients:    make(map[*websocket.Conn]bool),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcast pushes state snapshots to all connected clients at ~10 Hz.
func (h *StateHandler) broadcast() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.RLock()
		n := len(h.clients)
		h.mu.RUnlock()
		if n == 0 {
			continue
		}

		state := h.controller.State(time.Now())

		h.mu.RLock()
		for conn := range h.clients {
			if err := conn.WriteJSON(state); err != nil {
				conn.Close()
			}
		}
		h.mu.RUnlock()
	}
}
