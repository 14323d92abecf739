// Package services implements the application services orchestrating
// repositories, object storage, and live event delivery.
package services

import "context"

// Event is a unit of live delivery pushed to connected clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Event types pushed over the live channel.
const (
	EventMessageNew          = "message.new"
	EventConversationUpdated = "conversation.updated"
	EventNotificationNew     = "notification.new"
)

// EventSink delivers events to a user's active connections. Delivery is
// best-effort: a user with no open connection simply misses the push and
// catches up from the persisted state.
type EventSink interface {
	Publish(ctx context.Context, userID string, event Event)
}

// NopSink discards all events. Useful in tests and for tools that run the
// services without a live channel.
type NopSink struct{}

func (NopSink) Publish(context.Context, string, Event) {}
