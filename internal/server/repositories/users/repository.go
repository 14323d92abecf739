package users

import (
	"context"

	"github.com/nozoku/nozoku-server/internal/server/models"
)

// Repository is the persistence surface for user accounts, their settings,
// the verification workflow, and wallet balance mutations.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)

	UpdateProfile(ctx context.Context, id, displayName, bio, avatarKey string) error
	UpdateSettings(ctx context.Context, id string, s models.Settings) error
	UpdatePassword(ctx context.Context, id string, hash []byte) error
	UpdateCreatorOptions(ctx context.Context, id string, mode models.SubscriptionMode, price int64) error

	SetVerificationPending(ctx context.Context, id, idKey, selfieKey string) error
	ApproveVerification(ctx context.Context, id string) error
	SetMonetization(ctx context.Context, id string, enabled bool) error

	// Credit adds amount to the wallet balance.
	Credit(ctx context.Context, id string, amount int64) error
	// Debit subtracts amount, failing with common.ErrInsufficientBalance
	// unless the current balance covers it. The check and the decrement are
	// one conditional UPDATE, never a read-modify-write.
	Debit(ctx context.Context, id string, amount int64) error
}
