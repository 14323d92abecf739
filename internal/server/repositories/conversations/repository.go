package conversations

import (
	"context"
	"time"

	"github.com/nozoku/nozoku-server/internal/server/models"
)

// Repository is the persistence surface for the conversation registry and the
// denormalized last-message snapshot.
type Repository interface {
	// CreateIfAbsent inserts the conversation unless its id already exists.
	// It reports whether a row was created; losing the creation race is not
	// an error and leaves the existing row untouched.
	CreateIfAbsent(ctx context.Context, conv *models.Conversation) (bool, error)
	Get(ctx context.Context, id string) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error)

	// SetLastMessage rewrites the snapshot fields after an append.
	SetLastMessage(ctx context.Context, id, senderID, text string, ts time.Time, unreadA, unreadB bool) error

	// MarkRead clears userID's unread flag; no-op when already clear.
	MarkRead(ctx context.Context, id, userID string) error
	// CountUnreadFor counts conversations whose latest message is unread by userID.
	CountUnreadFor(ctx context.Context, userID string) (int, error)
}
