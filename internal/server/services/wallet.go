package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nozoku/nozoku-server/internal/common"
	"github.com/nozoku/nozoku-server/internal/dbx"
	"github.com/nozoku/nozoku-server/internal/logging"
	"github.com/nozoku/nozoku-server/internal/server/models"
	"github.com/nozoku/nozoku-server/internal/server/repositories/repomanager"
)

// WalletService manages per-user balances and the append-only transaction
// ledger. Every balance mutation writes its ledger row in the same database
// transaction, so the ledger and the balance cannot drift apart.
type WalletService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	notifications *NotificationService
	logger        logging.Logger
}

func NewWalletService(db *sql.DB, rm repomanager.RepositoryManager, ns *NotificationService, logger logging.Logger) *WalletService {
	return &WalletService{
		db:            db,
		repomanager:   rm,
		notifications: ns,
		logger:        logger.With("module", "wallet"),
	}
}

// Balance returns the user's current wallet balance in cents.
func (s *WalletService) Balance(ctx context.Context, userID string) (int64, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.WalletBalance, nil
}

// TopUp credits the user's wallet after a gateway-confirmed payment and
// records a top-up row with FromUser == ToUser.
func (s *WalletService) TopUp(ctx context.Context, userID string, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	var t *models.Transaction
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Credit(ctx, userID, amount); err != nil {
			return err
		}
		var err error
		t, err = s.repomanager.Transactions(tx).Create(ctx, &models.Transaction{
			FromUser: userID,
			ToUser:   userID,
			Amount:   amount,
			Type:     models.TransactionTopUp,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error topping up wallet: %w", err)
	}
	return t, nil
}

// Tip moves amount from the sender's wallet to the recipient's. The debit is
// a conditional decrement, so a balance that is too low fails the whole
// transfer with ErrInsufficientBalance and neither wallet changes. A single
// tip row is written, visible in both parties' histories.
func (s *WalletService) Tip(ctx context.Context, fromID, toID string, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	if fromID == toID || fromID == "" || toID == "" {
		return nil, common.ErrInvalidParticipants
	}

	// Fails fast on unknown recipients before touching the sender's balance.
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, toID); err != nil {
		return nil, err
	}

	var t *models.Transaction
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		if err := users.Debit(ctx, fromID, amount); err != nil {
			return err
		}
		if err := users.Credit(ctx, toID, amount); err != nil {
			return err
		}
		var err error
		t, err = s.repomanager.Transactions(tx).Create(ctx, &models.Transaction{
			FromUser: fromID,
			ToUser:   toID,
			Amount:   amount,
			Type:     models.TransactionTip,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrInsufficientBalance) {
			return nil, common.ErrInsufficientBalance
		}
		return nil, fmt.Errorf("error sending tip: %w", err)
	}

	if err := s.notifications.Push(ctx, toID, models.NotificationPurchase, "You received a tip"); err != nil {
		s.logger.Warn(ctx, "error pushing tip notification", "error", err)
	}
	return t, nil
}

// Withdraw debits the creator's wallet and records a withdrawal row with
// FromUser == ToUser. Only verified creators with monetization enabled may
// withdraw.
func (s *WalletService) Withdraw(ctx context.Context, userID string, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.VerificationStatus != models.VerificationVerified || !user.MonetizationEnabled {
		return nil, common.ErrNotEligible
	}

	var t *models.Transaction
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Debit(ctx, userID, amount); err != nil {
			return err
		}
		var err error
		t, err = s.repomanager.Transactions(tx).Create(ctx, &models.Transaction{
			FromUser: userID,
			ToUser:   userID,
			Amount:   amount,
			Type:     models.TransactionWithdrawal,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrInsufficientBalance) {
			return nil, common.ErrInsufficientBalance
		}
		return nil, fmt.Errorf("error withdrawing funds: %w", err)
	}
	return t, nil
}

// ListTransactions returns every ledger row involving the user, newest first.
func (s *WalletService) ListTransactions(ctx context.Context, userID string) ([]*models.Transaction, error) {
	return s.repomanager.Transactions(s.db).ListForUser(ctx, userID)
}
