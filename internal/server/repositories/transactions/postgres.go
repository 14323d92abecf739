// Package transactions provides the PostgreSQL-backed wallet ledger.
package transactions

import (
	"context"
	"fmt"

	"github.com/nozoku/nozoku-server/internal/dbx"
	"github.com/nozoku/nozoku-server/internal/server/models"
)

// PostgresRepository implements ledger storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (from_user, to_user, amount, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, date
	`
	err := r.db.QueryRowContext(ctx, query, t.FromUser, t.ToUser, t.Amount, t.Type).
		Scan(&t.ID, &t.Date)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*models.Transaction, error) {
	query := `
		SELECT id, from_user, to_user, amount, type, date
		FROM transactions
		WHERE from_user = $1 OR to_user = $1
		ORDER BY date DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Transaction
	for rows.Next() {
		t := &models.Transaction{}
		if err := rows.Scan(&t.ID, &t.FromUser, &t.ToUser, &t.Amount, &t.Type, &t.Date); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
