// Package live pushes tab updates to connected clients over WebSocket.
// Clients subscribe to one tab; after every committed mutation the server
// broadcasts the tab's new revision so subscribers can refetch.
package live

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Message is a real-time notification sent to a tab's subscribers.
type Message struct {
	Type     string `json:"type"`
	TabID    string `json:"tab_id"`
	Revision int64  `json:"revision,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// TabUpdated builds the notification sent after any committed mutation.
func TabUpdated(tabID string, revision int64) Message {
	return Message{Type: "tab_updated", TabID: tabID, Revision: revision}
}

// Nudge builds the staff-nudge notification.
func Nudge(tabID, reason string) Message {
	return Message{Type: "nudge", TabID: tabID, Reason: reason}
}

// Hub maintains the set of active clients and broadcasts messages to the
// subscribers of a tab.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to every client subscribed to the message's tab.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.tabID != msg.TabID {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
