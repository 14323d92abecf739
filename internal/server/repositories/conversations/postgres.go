// Package conversations provides the PostgreSQL-backed conversation registry.
package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nozoku/nozoku-server/internal/common"
	"github.com/nozoku/nozoku-server/internal/dbx"
	"github.com/nozoku/nozoku-server/internal/server/models"
)

// PostgresRepository implements conversation storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const convColumns = `id, participant_a, participant_b, created_at,
		last_sender_id, last_text, last_timestamp, unread_a, unread_b`

func scanConversation(scan func(dest ...any) error) (*models.Conversation, error) {
	c := &models.Conversation{}
	err := scan(&c.ID, &c.ParticipantA, &c.ParticipantB, &c.CreatedAt,
		&c.LastSenderID, &c.LastText, &c.LastTimestamp, &c.UnreadByA, &c.UnreadByB)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// CreateIfAbsent relies on the primary key to resolve concurrent creation:
// the race loser's insert affects zero rows and the existing history survives.
func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, conv *models.Conversation) (bool, error) {
	query := `
		INSERT INTO conversations (id, participant_a, participant_b)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, conv.ID, conv.ParticipantA, conv.ParticipantB)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := dbx.RowsAffected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Conversation, error) {
	query := `SELECT ` + convColumns + ` FROM conversations WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanConversation(row.Scan)
}

// ListForUser returns every conversation containing userID, most recent
// activity first. Conversations without messages keep the epoch timestamp and
// therefore sort last.
func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error) {
	query := `
		SELECT ` + convColumns + ` FROM conversations
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY last_timestamp DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Conversation
	for rows.Next() {
		c, err := scanConversation(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) SetLastMessage(ctx context.Context, id, senderID, text string, ts time.Time, unreadA, unreadB bool) error {
	query := `
		UPDATE conversations
		SET last_sender_id = $2, last_text = $3, last_timestamp = $4,
			unread_a = $5, unread_b = $6
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, senderID, text, ts, unreadA, unreadB)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := dbx.RowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, id, userID string) error {
	query := `
		UPDATE conversations
		SET unread_a = CASE WHEN participant_a = $2 THEN FALSE ELSE unread_a END,
			unread_b = CASE WHEN participant_b = $2 THEN FALSE ELSE unread_b END
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountUnreadFor(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM conversations
		WHERE (participant_a = $1 AND unread_a) OR (participant_b = $1 AND unread_b)
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
