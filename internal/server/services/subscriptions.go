package services

import (
	"context"
	"database/sql"

	"github.com/nozoku/nozoku-server/internal/common"
	"github.com/nozoku/nozoku-server/internal/dbx"
	"github.com/nozoku/nozoku-server/internal/logging"
	"github.com/nozoku/nozoku-server/internal/server/models"
	"github.com/nozoku/nozoku-server/internal/server/repositories/repomanager"
)

// SubscriptionService implements the creator subscription relation and the
// verification → monetization state machine.
type SubscriptionService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	notifications *NotificationService
	logger        logging.Logger
}

func NewSubscriptionService(db *sql.DB, rm repomanager.RepositoryManager, ns *NotificationService, logger logging.Logger) *SubscriptionService {
	return &SubscriptionService{
		db:            db,
		repomanager:   rm,
		notifications: ns,
		logger:        logger.With("module", "subscriptions"),
	}
}

// Subscribe adds the viewer to a free creator's subscriber set. Creators in
// paid or both mode require the payment gateway's success callback first
// (see ConfirmPaidSubscription); calling Subscribe directly on them fails.
func (s *SubscriptionService) Subscribe(ctx context.Context, viewerID, creatorID string) error {
	if viewerID == creatorID {
		return common.ErrInvalidParticipants
	}

	subscribed, err := s.repomanager.Subscriptions(s.db).Exists(ctx, creatorID, viewerID)
	if err != nil {
		return err
	}
	if subscribed {
		return common.ErrAlreadySubscribed
	}

	creator, err := s.repomanager.Users(s.db).GetByID(ctx, creatorID)
	if err != nil {
		return err
	}
	if creator.SubscriptionMode != models.SubscriptionFree {
		return common.ErrNotEligible
	}

	return s.addSubscriber(ctx, viewerID, creatorID)
}

// ConfirmPaidSubscription completes a paid subscription after the gateway
// reported success. The reference makes repeated callbacks idempotent. The
// gateway's word is taken as authoritative; the server performs no
// independent payment verification.
func (s *SubscriptionService) ConfirmPaidSubscription(ctx context.Context, reference, viewerID, creatorID string, amount int64) error {
	if viewerID == creatorID {
		return common.ErrInvalidParticipants
	}
	if reference == "" || amount <= 0 {
		return common.ErrInvalidAmount
	}

	// The payment row and the subscriber row must land together: a failed
	// add after a recorded payment would burn the reference and turn every
	// gateway retry into a duplicate.
	var first, added bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		first, err = s.repomanager.Payments(tx).Record(ctx, reference, viewerID, creatorID, amount)
		if err != nil || !first {
			return err
		}
		added, err = s.repomanager.Subscriptions(tx).Add(ctx, creatorID, viewerID)
		return err
	})
	if err != nil {
		return err
	}
	if !first {
		s.logger.Info(ctx, "duplicate payment callback ignored", "reference", reference)
		return nil
	}
	if !added {
		return common.ErrAlreadySubscribed
	}

	s.notifySubscriber(ctx, creatorID)
	return nil
}

func (s *SubscriptionService) addSubscriber(ctx context.Context, viewerID, creatorID string) error {
	added, err := s.repomanager.Subscriptions(s.db).Add(ctx, creatorID, viewerID)
	if err != nil {
		return err
	}
	if !added {
		return common.ErrAlreadySubscribed
	}

	s.notifySubscriber(ctx, creatorID)
	return nil
}

func (s *SubscriptionService) notifySubscriber(ctx context.Context, creatorID string) {
	if err := s.notifications.Push(ctx, creatorID, models.NotificationFollower, "You have a new subscriber"); err != nil {
		s.logger.Warn(ctx, "subscriber notification failed", "error", err.Error())
	}
}

// Unsubscribe removes the viewer from the subscriber set; absent rows are a
// no-op.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, viewerID, creatorID string) error {
	return s.repomanager.Subscriptions(s.db).Remove(ctx, creatorID, viewerID)
}

// IsSubscribed reports whether viewerID is in creatorID's subscriber set.
func (s *SubscriptionService) IsSubscribed(ctx context.Context, viewerID, creatorID string) (bool, error) {
	return s.repomanager.Subscriptions(s.db).Exists(ctx, creatorID, viewerID)
}

// SubmitVerification stores both document keys and moves the user to pending.
// Re-submitting while pending overwrites the previous submission.
func (s *SubscriptionService) SubmitVerification(ctx context.Context, userID, idKey, selfieKey string) error {
	if idKey == "" || selfieKey == "" {
		return common.ErrMissingDocument
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.VerificationStatus == models.VerificationVerified {
		return common.ErrNotEligible
	}

	return s.repomanager.Users(s.db).SetVerificationPending(ctx, userID, idKey, selfieKey)
}

// ApproveVerification transitions pending → verified. There is no automatic
// approval path; this is invoked by an operator.
func (s *SubscriptionService) ApproveVerification(ctx context.Context, userID string) error {
	return s.repomanager.Users(s.db).ApproveVerification(ctx, userID)
}

// EnableMonetization requires a verified account.
func (s *SubscriptionService) EnableMonetization(ctx context.Context, userID string) error {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.VerificationStatus != models.VerificationVerified {
		return common.ErrNotVerified
	}
	return s.repomanager.Users(s.db).SetMonetization(ctx, userID, true)
}

// DisableMonetization always succeeds; re-enabling later only re-checks the
// verified status, not a fresh approval.
func (s *SubscriptionService) DisableMonetization(ctx context.Context, userID string) error {
	return s.repomanager.Users(s.db).SetMonetization(ctx, userID, false)
}
