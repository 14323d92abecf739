package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/nozoku/nozoku-server/internal/server/services"
)

// command is a client-to-server frame. Clients subscribe to a conversation
// to receive its new messages; everything else (notifications, conversation
// list updates) is delivered without subscribing.
type command struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
}

const (
	cmdSubscribe   = "subscribe"
	cmdUnsubscribe = "unsubscribe"
)

// Client is one WebSocket connection of an authenticated user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string

	subMu sync.Mutex
	subs  map[string]bool
	// pending holds live messages that arrive while the conversation's
	// history is being replayed; the key's presence marks the replay.
	pending map[string][]pendingMessage
}

type pendingMessage struct {
	id   string
	data []byte
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		userID:  userID,
		subs:    make(map[string]bool),
		pending: make(map[string][]pendingMessage),
	}
}

type deliverResult int

const (
	deliverSkipped deliverResult = iota
	deliverQueued
	deliverFull
)

// deliverMessage routes a new-message event for one conversation. Messages
// for conversations the client never subscribed to are skipped; during a
// history replay they are buffered instead of sent, so the replay stays in
// order and nothing falls into the gap between the history query and the
// subscription mark.
func (c *Client) deliverMessage(conversationID, messageID string, data []byte) deliverResult {
	c.subMu.Lock()
	if !c.subs[conversationID] {
		c.subMu.Unlock()
		return deliverSkipped
	}
	if buf, replaying := c.pending[conversationID]; replaying {
		c.pending[conversationID] = append(buf, pendingMessage{id: messageID, data: data})
		c.subMu.Unlock()
		return deliverQueued
	}
	c.subMu.Unlock()

	select {
	case c.send <- data:
		return deliverQueued
	default:
		return deliverFull
	}
}

// drop hands the client back to the hub. After shutdown the run loop no
// longer receives, so the send is abandoned once the hub reports done.
func (c *Client) drop() {
	select {
	case c.hub.Unregister <- c:
	case <-c.hub.done:
	}
}

// ReadPump reads commands until the connection drops, then unregisters.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.drop()
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn(ctx, "unexpected close", "user_id", c.userID, "error", err)
			}
			return
		}

		var cmd command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Warn(ctx, "bad command frame", "user_id", c.userID, "error", err)
			continue
		}

		switch cmd.Type {
		case cmdSubscribe:
			c.handleSubscribe(ctx, cmd.ConversationID)
		case cmdUnsubscribe:
			c.cancelSubscription(cmd.ConversationID)
		}
	}
}

// handleSubscribe replays the conversation history in order, then switches
// to live delivery. The subscription is marked before the history query and
// concurrent appends are parked in the pending buffer, so a message landing
// during the replay is neither lost nor delivered ahead of older history.
// Messages present in both the history and the buffer are sent once.
func (c *Client) handleSubscribe(ctx context.Context, conversationID string) {
	c.subMu.Lock()
	if c.subs[conversationID] {
		c.subMu.Unlock()
		return
	}
	c.subs[conversationID] = true
	c.pending[conversationID] = []pendingMessage{}
	c.subMu.Unlock()

	history, err := c.hub.messaging.History(ctx, conversationID, c.userID)
	if err != nil {
		c.hub.logger.Warn(ctx, "error loading history", "user_id", c.userID, "error", err)
		c.cancelSubscription(conversationID)
		return
	}

	replayed := make(map[string]bool, len(history))
	for _, msg := range history {
		data, err := json.Marshal(services.Event{Type: services.EventMessageNew, Payload: msg})
		if err != nil {
			continue
		}
		replayed[msg.ID] = true
		select {
		case c.send <- data:
		default:
			c.cancelSubscription(conversationID)
			return
		}
	}

	c.subMu.Lock()
	buffered := c.pending[conversationID]
	delete(c.pending, conversationID)
	c.subMu.Unlock()

	for _, pm := range buffered {
		if replayed[pm.id] {
			continue
		}
		select {
		case c.send <- pm.data:
		default:
			c.cancelSubscription(conversationID)
			return
		}
	}
}

// cancelSubscription unwinds a subscribe that could not complete its replay,
// so the client can issue it again.
func (c *Client) cancelSubscription(conversationID string) {
	c.subMu.Lock()
	delete(c.subs, conversationID)
	delete(c.pending, conversationID)
	c.subMu.Unlock()
}

// WritePump drains the send channel onto the connection. The hub closes the
// channel on unregister, which makes this goroutine exit.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
