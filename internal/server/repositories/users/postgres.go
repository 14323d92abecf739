// Package users provides the PostgreSQL-backed repository for user accounts.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nozoku/nozoku-server/internal/common"
	"github.com/nozoku/nozoku-server/internal/dbx"
	"github.com/nozoku/nozoku-server/internal/server/models"
)

const uniqueViolation = "23505"

// PostgresRepository implements user storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, password_hash, display_name, bio, avatar_key,
		is_creator, subscription_mode, subscription_price, wallet_balance,
		verification_status, monetization_enabled,
		verification_id_key, verification_selfie_key,
		notify_followers, notify_purchases, notify_messages, notify_updates,
		hide_wallet, message_privacy, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Bio, &u.AvatarKey,
		&u.IsCreator, &u.SubscriptionMode, &u.SubscriptionPrice, &u.WalletBalance,
		&u.VerificationStatus, &u.MonetizationEnabled,
		&u.VerificationIDKey, &u.VerificationSelfieKey,
		&u.Settings.NotifyFollowers, &u.Settings.NotifyPurchases,
		&u.Settings.NotifyMessages, &u.Settings.NotifyUpdates,
		&u.Settings.HideWallet, &u.Settings.MessagePrivacy, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// Create inserts a new account. A duplicate email yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, password_hash, display_name,
			notify_followers, notify_purchases, notify_messages, notify_updates,
			hide_wallet, message_privacy)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	s := user.Settings
	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.DisplayName,
		s.NotifyFollowers, s.NotifyPurchases, s.NotifyMessages, s.NotifyUpdates,
		s.HideWallet, s.MessagePrivacy).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.SubscriptionMode = models.SubscriptionFree
	user.VerificationStatus = models.VerificationUnverified
	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetProfile returns the directory view of a user, including the current
// subscriber count.
func (r *PostgresRepository) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	query := `
		SELECT id, display_name, avatar_key, bio, is_creator,
			subscription_mode, subscription_price,
			(SELECT COUNT(*) FROM subscriptions WHERE creator_id = users.id)
		FROM users WHERE id = $1
	`
	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.DisplayName, &p.AvatarKey,
		&p.Bio, &p.IsCreator, &p.SubscriptionMode, &p.SubscriptionPrice, &p.Subscribers)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id, displayName, bio, avatarKey string) error {
	query := `UPDATE users SET display_name = $2, bio = $3, avatar_key = $4 WHERE id = $1`
	return r.execExpectingOne(ctx, query, id, displayName, bio, avatarKey)
}

func (r *PostgresRepository) UpdateSettings(ctx context.Context, id string, s models.Settings) error {
	query := `
		UPDATE users SET notify_followers = $2, notify_purchases = $3,
			notify_messages = $4, notify_updates = $5,
			hide_wallet = $6, message_privacy = $7
		WHERE id = $1
	`
	return r.execExpectingOne(ctx, query, id,
		s.NotifyFollowers, s.NotifyPurchases, s.NotifyMessages, s.NotifyUpdates,
		s.HideWallet, s.MessagePrivacy)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	query := `UPDATE users SET password_hash = $2 WHERE id = $1`
	return r.execExpectingOne(ctx, query, id, hash)
}

func (r *PostgresRepository) UpdateCreatorOptions(ctx context.Context, id string, mode models.SubscriptionMode, price int64) error {
	query := `UPDATE users SET is_creator = TRUE, subscription_mode = $2, subscription_price = $3 WHERE id = $1`
	return r.execExpectingOne(ctx, query, id, mode, price)
}

// SetVerificationPending stores the latest submission, overwriting any prior
// one, and moves the status to pending.
func (r *PostgresRepository) SetVerificationPending(ctx context.Context, id, idKey, selfieKey string) error {
	query := `
		UPDATE users SET verification_status = 'pending',
			verification_id_key = $2, verification_selfie_key = $3
		WHERE id = $1
	`
	return r.execExpectingOne(ctx, query, id, idKey, selfieKey)
}

// ApproveVerification transitions pending → verified. common.ErrorNotFound is
// returned when the user is missing or not pending.
func (r *PostgresRepository) ApproveVerification(ctx context.Context, id string) error {
	query := `UPDATE users SET verification_status = 'verified' WHERE id = $1 AND verification_status = 'pending'`
	return r.execExpectingOne(ctx, query, id)
}

func (r *PostgresRepository) SetMonetization(ctx context.Context, id string, enabled bool) error {
	query := `UPDATE users SET monetization_enabled = $2 WHERE id = $1`
	return r.execExpectingOne(ctx, query, id, enabled)
}

// Credit adds amount to the balance with an additive UPDATE so concurrent
// tips never lose increments.
func (r *PostgresRepository) Credit(ctx context.Context, id string, amount int64) error {
	query := `UPDATE users SET wallet_balance = wallet_balance + $2 WHERE id = $1`
	return r.execExpectingOne(ctx, query, id, amount)
}

// Debit subtracts amount only when the balance covers it.
func (r *PostgresRepository) Debit(ctx context.Context, id string, amount int64) error {
	query := `UPDATE users SET wallet_balance = wallet_balance - $2 WHERE id = $1 AND wallet_balance >= $2`
	res, err := r.db.ExecContext(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := dbx.RowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrInsufficientBalance
	}
	return nil
}

func (r *PostgresRepository) execExpectingOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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
