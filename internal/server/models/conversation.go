package models

import "time"

// Conversation is a two-party chat keyed by the canonical pair id
// (the sorted participant ids joined with "_"). The LastMessage fields are a
// denormalized snapshot of the message log's tail, written in the same
// transaction as the message itself.
type Conversation struct {
	ID           string    `json:"id"`
	ParticipantA string    `json:"participantA"` // lexicographically smaller id
	ParticipantB string    `json:"participantB"`
	CreatedAt    time.Time `json:"createdAt"`

	LastSenderID  string    `json:"lastSenderId"`
	LastText      string    `json:"lastText"`
	LastTimestamp time.Time `json:"lastTimestamp"`
	UnreadByA     bool      `json:"-"`
	UnreadByB     bool      `json:"-"`
}

// Participants returns the fixed two-member participant set.
func (c *Conversation) Participants() []string {
	return []string{c.ParticipantA, c.ParticipantB}
}

// HasParticipant reports whether id belongs to the conversation.
func (c *Conversation) HasParticipant(id string) bool {
	return id == c.ParticipantA || id == c.ParticipantB
}

// Counterpart returns the other participant for id. Empty string when id is
// not a participant.
func (c *Conversation) Counterpart(id string) string {
	switch id {
	case c.ParticipantA:
		return c.ParticipantB
	case c.ParticipantB:
		return c.ParticipantA
	}
	return ""
}

// UnreadBy returns the subset of participants who have not acknowledged
// the latest message.
func (c *Conversation) UnreadBy() []string {
	var ids []string
	if c.UnreadByA {
		ids = append(ids, c.ParticipantA)
	}
	if c.UnreadByB {
		ids = append(ids, c.ParticipantB)
	}
	return ids
}

// ConversationSummary is a list row: the conversation plus the resolved
// counterpart profile and the viewer's unread flag.
type ConversationSummary struct {
	ID                   string    `json:"id"`
	CounterpartID        string    `json:"counterpartId"`
	CounterpartName      string    `json:"counterpartName"`
	CounterpartAvatarKey string    `json:"counterpartAvatarKey"`
	LastText             string    `json:"lastText"`
	LastTimestamp        time.Time `json:"lastTimestamp"`
	Unread               bool      `json:"unread"`
}

// Message is an immutable entry in a conversation's append-only log.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}
