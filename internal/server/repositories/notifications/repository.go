package notifications

import (
	"context"

	"github.com/nozoku/nozoku-server/internal/server/models"
)

// Repository is the persistence surface for per-user notifications.
type Repository interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Notification, error)
	// ListUnreadIDs returns the ids of currently-unread notifications,
	// the snapshot that mark-all-read operates on.
	ListUnreadIDs(ctx context.Context, userID string) ([]string, error)
	MarkRead(ctx context.Context, id string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}
