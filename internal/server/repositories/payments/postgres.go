// Package payments provides the PostgreSQL-backed payment callback log.
package payments

import (
	"context"
	"fmt"

	"github.com/nozoku/nozoku-server/internal/dbx"
)

// PostgresRepository implements payment recording over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Record(ctx context.Context, reference, viewerID, creatorID string, amount int64) (bool, error) {
	query := `
		INSERT INTO payments (reference, viewer_id, creator_id, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (reference) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, reference, viewerID, creatorID, amount)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := dbx.RowsAffected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
