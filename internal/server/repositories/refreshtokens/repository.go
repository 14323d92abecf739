package refreshtokens

import (
	"context"
	"time"

	"github.com/nozoku/nozoku-server/internal/server/models"
)

// Repository manages the refresh tokens backing the authentication flow.
type Repository interface {
	Create(ctx context.Context, userID, token string, validity time.Duration) error
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
}
