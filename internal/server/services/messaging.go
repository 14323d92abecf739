package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nozoku/nozoku-server/internal/common"
	"github.com/nozoku/nozoku-server/internal/dbx"
	"github.com/nozoku/nozoku-server/internal/server/models"
	"github.com/nozoku/nozoku-server/internal/server/repositories/repomanager"
)

// conversationIDSeparator joins the sorted participant ids into the
// canonical pair id.
const conversationIDSeparator = "_"

// DeriveConversationID returns the order-independent conversation id for a
// participant pair: the two ids sorted lexicographically and joined with "_".
func DeriveConversationID(userA, userB string) (string, error) {
	if userA == "" || userB == "" || userA == userB {
		return "", common.ErrInvalidParticipants
	}
	if userA < userB {
		return userA + conversationIDSeparator + userB, nil
	}
	return userB + conversationIDSeparator + userA, nil
}

// MessagingService implements the conversation registry, the message log and
// the unread aggregation over them.
type MessagingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sink        EventSink
}

func NewMessagingService(db *sql.DB, rm repomanager.RepositoryManager, sink EventSink) *MessagingService {
	return &MessagingService{db: db, repomanager: rm, sink: sink}
}

// GetOrCreateConversation returns the conversation for the pair, creating it
// if needed. Creation is an atomic insert-if-absent on the derived id, so
// concurrent callers cannot clobber existing history; the race loser just
// reads back the winner's row.
//
// When the initiator would create a NEW conversation, the counterpart's
// message privacy setting is enforced: "noone" blocks everyone, "followers"
// requires the initiator to be one of the counterpart's subscribers. Existing
// conversations are returned regardless.
func (s *MessagingService) GetOrCreateConversation(ctx context.Context, initiatorID, counterpartID string) (*models.Conversation, error) {
	id, err := DeriveConversationID(initiatorID, counterpartID)
	if err != nil {
		return nil, err
	}

	convRepo := s.repomanager.Conversations(s.db)

	conv, err := convRepo.Get(ctx, id)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	if err := s.checkMessagePrivacy(ctx, initiatorID, counterpartID); err != nil {
		return nil, err
	}

	a, b := initiatorID, counterpartID
	if b < a {
		a, b = b, a
	}
	if _, err := convRepo.CreateIfAbsent(ctx, &models.Conversation{ID: id, ParticipantA: a, ParticipantB: b}); err != nil {
		return nil, err
	}

	// read back whichever row survived the race
	return convRepo.Get(ctx, id)
}

func (s *MessagingService) checkMessagePrivacy(ctx context.Context, initiatorID, counterpartID string) error {
	counterpart, err := s.repomanager.Users(s.db).GetByID(ctx, counterpartID)
	if err != nil {
		return err
	}

	switch counterpart.Settings.MessagePrivacy {
	case models.MessagePrivacyNoone:
		return common.ErrMessagingRestricted
	case models.MessagePrivacyFollowers:
		subscribed, err := s.repomanager.Subscriptions(s.db).Exists(ctx, counterpartID, initiatorID)
		if err != nil {
			return err
		}
		if !subscribed {
			return common.ErrMessagingRestricted
		}
	}
	return nil
}

// ListConversations returns the user's conversation summaries ordered by last
// activity, counterparts resolved through the user directory.
func (s *MessagingService) ListConversations(ctx context.Context, userID string) ([]*models.ConversationSummary, error) {
	convs, err := s.repomanager.Conversations(s.db).ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	userRepo := s.repomanager.Users(s.db)

	summaries := make([]*models.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		counterpartID := c.Counterpart(userID)

		summary := &models.ConversationSummary{
			ID:            c.ID,
			CounterpartID: counterpartID,
			LastText:      c.LastText,
			LastTimestamp: c.LastTimestamp,
		}
		for _, id := range c.UnreadBy() {
			if id == userID {
				summary.Unread = true
			}
		}

		profile, err := userRepo.GetProfile(ctx, counterpartID)
		if err == nil {
			summary.CounterpartName = profile.DisplayName
			summary.CounterpartAvatarKey = profile.AvatarKey
		} else if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// AppendMessage appends to the conversation's log and rewrites the
// denormalized last-message snapshot in the same transaction, marking every
// participant except the sender unread. Both participants then receive the
// message over the live channel.
func (s *MessagingService) AppendMessage(ctx context.Context, conversationID, senderID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, common.ErrEmptyMessage
	}

	conv, err := s.repomanager.Conversations(s.db).Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, common.ErrNotParticipant
	}

	var msg *models.Message
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		msg, err = s.repomanager.Messages(tx).Create(ctx, &models.Message{
			ConversationID: conversationID,
			SenderID:       senderID,
			Text:           text,
		})
		if err != nil {
			return err
		}

		unreadA := conv.ParticipantA != senderID
		unreadB := conv.ParticipantB != senderID
		return s.repomanager.Conversations(tx).SetLastMessage(ctx,
			conversationID, senderID, text, msg.CreatedAt, unreadA, unreadB)
	})
	if err != nil {
		return nil, fmt.Errorf("error appending message: %w", err)
	}

	for _, participant := range conv.Participants() {
		s.sink.Publish(ctx, participant, Event{Type: EventMessageNew, Payload: msg})
		s.sink.Publish(ctx, participant, Event{Type: EventConversationUpdated, Payload: conversationID})
	}

	return msg, nil
}

// History returns the conversation's full ordered log. Callers must be
// participants.
func (s *MessagingService) History(ctx context.Context, conversationID, userID string) ([]*models.Message, error) {
	conv, err := s.repomanager.Conversations(s.db).Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, common.ErrNotParticipant
	}
	return s.repomanager.Messages(s.db).ListByConversation(ctx, conversationID)
}

// MarkConversationRead removes userID from the conversation's unread set.
// Already-read conversations are a no-op.
func (s *MessagingService) MarkConversationRead(ctx context.Context, conversationID, userID string) error {
	conv, err := s.repomanager.Conversations(s.db).Get(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return common.ErrNotParticipant
	}
	if err := s.repomanager.Conversations(s.db).MarkRead(ctx, conversationID, userID); err != nil {
		return err
	}
	s.sink.Publish(ctx, userID, Event{Type: EventConversationUpdated, Payload: conversationID})
	return nil
}

// UnreadMessageCount counts conversations whose latest message userID has not
// acknowledged.
func (s *MessagingService) UnreadMessageCount(ctx context.Context, userID string) (int, error) {
	return s.repomanager.Conversations(s.db).CountUnreadFor(ctx, userID)
}
