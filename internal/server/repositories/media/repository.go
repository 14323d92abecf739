package media

import (
	"context"

	"github.com/nozoku/nozoku-server/internal/server/models"
)

// Repository is the persistence surface for a user's ordered media list.
// The binary content itself lives in object storage.
type Repository interface {
	Add(ctx context.Context, item *models.MediaItem) (*models.MediaItem, error)
	ListForUser(ctx context.Context, userID string) ([]*models.MediaItem, error)
}
