// Package subscriptions provides the PostgreSQL-backed subscriber set.
package subscriptions

import (
	"context"
	"fmt"

	"github.com/nozoku/nozoku-server/internal/dbx"
)

// PostgresRepository implements the subscriber relation over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, creatorID, subscriberID string) (bool, error) {
	query := `
		INSERT INTO subscriptions (creator_id, subscriber_id)
		VALUES ($1, $2)
		ON CONFLICT (creator_id, subscriber_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, creatorID, subscriberID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := dbx.RowsAffected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresRepository) Remove(ctx context.Context, creatorID, subscriberID string) error {
	query := `DELETE FROM subscriptions WHERE creator_id = $1 AND subscriber_id = $2`
	if _, err := r.db.ExecContext(ctx, query, creatorID, subscriberID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, creatorID, subscriberID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE creator_id = $1 AND subscriber_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, creatorID, subscriberID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}
