package realtime

import (
	"context"
	"fmt"
	"sync"

	"classline/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// Limit concurrent sockets per user so one account cannot exhaust the hub.
const maxConnsPerUser = 8

// Hub tracks live websocket clients and the broker subscriptions each one
// holds, so a dropped connection tears its subscriptions down with it.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*Client]bool
	cancels map[*Client][]func()
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]bool),
		cancels: make(map[*Client][]func()),
	}
}

// Register creates a Client for the connection, enforcing the per-user limit.
func (h *Hub) Register(userID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]bool)
	}
	if len(h.clients[userID]) >= maxConnsPerUser {
		return nil, fmt.Errorf("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.clients[userID][client] = true
	observability.WebSocketConnections.Inc()
	return client, nil
}

// Unregister removes a client and cancels every subscription it held.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	cancels := h.cancels[client]
	delete(h.cancels, client)

	removed := false
	if clients, ok := h.clients[client.UserID]; ok {
		if clients[client] {
			delete(clients, client)
			removed = true
		}
		if len(clients) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	h.mu.Unlock()

	if !removed {
		return
	}
	for _, cancel := range cancels {
		cancel()
	}
	observability.WebSocketConnections.Dec()
}

// AddCancel attaches a subscription cancel to the client's lifetime.
func (h *Hub) AddCancel(client *Client, cancel func()) {
	h.mu.Lock()
	h.cancels[client] = append(h.cancels[client], cancel)
	h.mu.Unlock()
}

// IsUserOnline reports whether the user has at least one live client.
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID]) > 0
}

// Shutdown closes every websocket connection and clears all state.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	var all []*Client
	for _, clients := range h.clients {
		for client := range clients {
			all = append(all, client)
		}
	}
	cancels := h.cancels
	h.clients = make(map[string]map[*Client]bool)
	h.cancels = make(map[*Client][]func())
	h.mu.Unlock()

	for _, client := range all {
		_ = client.Conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"server_shutdown","message":"Server is shutting down"}`))
		_ = client.Conn.Close()
		for _, cancel := range cancels[client] {
			cancel()
		}
	}
	return nil
}
