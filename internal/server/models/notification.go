package models

import "time"

// NotificationType categorizes a notification for settings gating.
type NotificationType string

const (
	NotificationFollower NotificationType = "follower"
	NotificationPurchase NotificationType = "purchase"
	NotificationMessage  NotificationType = "message"
	NotificationUpdate   NotificationType = "update"
)

// Notification belongs to exactly one user. Read is monotonic false→true.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Text      string           `json:"text"`
	Read      bool             `json:"read"`
	Timestamp time.Time        `json:"timestamp"`
}

// RefreshToken is a long-lived credential exchanged for new access tokens.
type RefreshToken struct {
	UserID  string
	Token   string
	Expires time.Time
}

// MediaItem is one element of a user's ordered media list. The content lives
// in object storage under StorageKey.
type MediaItem struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	PostID     string    `json:"postId"`
	StorageKey string    `json:"storageKey"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
}
