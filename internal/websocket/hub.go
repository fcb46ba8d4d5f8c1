package websocket

import (
	"sync"

	"github.com/adaptmath/backend/internal/metrics"
)

// Hub maintains the set of active clients and routes mastery updates to the
// owning student's connections.
type Hub struct {
	// Registered clients by user ID
	clients map[int64]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Broadcast channel for mastery updates
	broadcast chan *MasteryMessage

	mu sync.RWMutex
}

// MasteryMessage is one recomputed skill score pushed to a student's
// connected clients.
type MasteryMessage struct {
	Type        string  `json:"type"`
	UserID      int64   `json:"-"` // Not sent to the client, used for routing
	SkillID     int64   `json:"skill_id"`
	SkillName   string  `json:"skill_name"`
	Progression float64 `json:"progression"`
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *MasteryMessage),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()
			metrics.Default().IncWSConnections()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.userID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.userID)
					}
					metrics.Default().DecWSConnections()
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			if clients, ok := h.clients[message.UserID]; ok {
				for client := range clients {
					select {
					case client.send <- message:
					default:
						// Client's buffer is full, close the connection
						close(client.send)
						delete(clients, client)
						metrics.Default().DecWSConnections()
					}
				}
				if len(clients) == 0 {
					delete(h.clients, message.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a mastery update to all clients of the routed user.
func (h *Hub) Broadcast(msg *MasteryMessage) {
	h.broadcast <- msg
}

// ClientCount returns the number of connected clients for a user.
func (h *Hub) ClientCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.clients[userID]; ok {
		return len(clients)
	}
	return 0
}

// TotalClients returns the total number of connected clients.
func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
