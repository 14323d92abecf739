package messages

import (
	"context"

	"github.com/nozoku/nozoku-server/internal/server/models"
)

// Repository is the persistence surface for a conversation's append-only
// message log.
type Repository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	// ListByConversation returns the full log ascending by creation time.
	ListByConversation(ctx context.Context, conversationID string) ([]*models.Message, error)
}
