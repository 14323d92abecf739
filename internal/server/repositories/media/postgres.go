// Package media provides the PostgreSQL-backed media registry.
package media

import (
	"context"
	"fmt"

	"github.com/nozoku/nozoku-server/internal/dbx"
	"github.com/nozoku/nozoku-server/internal/server/models"
)

// PostgresRepository implements media storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Add appends the item at the end of the user's list.
func (r *PostgresRepository) Add(ctx context.Context, item *models.MediaItem) (*models.MediaItem, error) {
	query := `
		INSERT INTO media (user_id, post_id, storage_key, position)
		VALUES ($1, $2, $3,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM media WHERE user_id = $1))
		RETURNING id, position, created_at
	`
	err := r.db.QueryRowContext(ctx, query, item.UserID, item.PostID, item.StorageKey).
		Scan(&item.ID, &item.Position, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*models.MediaItem, error) {
	query := `
		SELECT id, user_id, post_id, storage_key, position, created_at
		FROM media
		WHERE user_id = $1
		ORDER BY position ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.MediaItem
	for rows.Next() {
		m := &models.MediaItem{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.PostID, &m.StorageKey, &m.Position, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
