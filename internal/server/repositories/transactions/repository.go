package transactions

import (
	"context"

	"github.com/nozoku/nozoku-server/internal/server/models"
)

// Repository is the persistence surface for the append-only wallet ledger.
// Rows are never updated or deleted.
type Repository interface {
	Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error)
	// ListForUser returns every transaction involving userID, newest first.
	ListForUser(ctx context.Context, userID string) ([]*models.Transaction, error)
}
