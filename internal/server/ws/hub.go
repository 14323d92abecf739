// Package ws implements the live delivery channel. Each connected client is
// registered under its user id; services publish events through the hub,
// which fans them out to every open connection of the target user.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/nozoku/nozoku-server/internal/logging"
	"github.com/nozoku/nozoku-server/internal/server/models"
	"github.com/nozoku/nozoku-server/internal/server/services"
)

// HistorySource loads the ordered message history replayed on subscribe.
type HistorySource interface {
	History(ctx context.Context, conversationID, viewerID string) ([]*models.Message, error)
}

// Hub owns the client registry. It implements services.EventSink, so the
// service layer never depends on this package.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	userMap map[string]map[*Client]bool

	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}

	messaging HistorySource
	logger    logging.Logger
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		userMap:    make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("module", "ws"),
	}
}

// Done is closed when the run loop has exited. Register and unregister
// senders select on it so they do not block during shutdown.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// SetMessaging wires the history source. The hub and the messaging service
// reference each other, so one side has to be bound after construction.
func (h *Hub) SetMessaging(m HistorySource) {
	h.messaging = m
}

// Run processes register and unregister requests until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info(ctx, "hub started")
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			if h.userMap[client.userID] == nil {
				h.userMap[client.userID] = make(map[*Client]bool)
			}
			h.userMap[client.userID][client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug(ctx, "client connected", "user_id", client.userID, "total", total)

		case client := <-h.Unregister:
			h.mu.Lock()
			h.removeLocked(client)
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug(ctx, "client disconnected", "user_id", client.userID, "total", total)
		}
	}
}

// removeLocked drops the client from both maps and closes its send channel.
// Callers hold h.mu.
func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if set := h.userMap[client.userID]; set != nil {
		delete(set, client)
		if len(set) == 0 {
			delete(h.userMap, client.userID)
		}
	}
	close(client.send)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.removeLocked(client)
	}
}

// Publish delivers the event to every open connection of userID. New-message
// events reach only connections subscribed to that conversation; everything
// else goes to all of the user's connections. A client with a full send
// buffer is dropped rather than allowed to stall the caller.
func (h *Hub) Publish(ctx context.Context, userID string, event services.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn(ctx, "error marshaling event", "type", event.Type, "error", err)
		return
	}

	conversationID, messageID := "", ""
	if event.Type == services.EventMessageNew {
		if msg, ok := event.Payload.(*models.Message); ok {
			conversationID = msg.ConversationID
			messageID = msg.ID
		}
	}

	var stalled []*Client
	h.mu.RLock()
	for client := range h.userMap[userID] {
		if conversationID != "" {
			if client.deliverMessage(conversationID, messageID, data) == deliverFull {
				stalled = append(stalled, client)
			}
			continue
		}
		select {
		case client.send <- data:
		default:
			stalled = append(stalled, client)
		}
	}
	h.mu.RUnlock()

	if len(stalled) > 0 {
		h.mu.Lock()
		for _, client := range stalled {
			h.logger.Warn(ctx, "send buffer full, dropping client", "user_id", client.userID)
			h.removeLocked(client)
		}
		h.mu.Unlock()
	}
}
