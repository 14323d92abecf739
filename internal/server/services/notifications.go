package services

import (
	"context"
	"database/sql"

	"github.com/nozoku/nozoku-server/internal/server/models"
	"github.com/nozoku/nozoku-server/internal/server/repositories/repomanager"
)

// NotificationService stores per-user notifications, aggregates unread
// counts, and fans new notifications out over the live channel.
type NotificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sink        EventSink
}

func NewNotificationService(db *sql.DB, rm repomanager.RepositoryManager, sink EventSink) *NotificationService {
	return &NotificationService{db: db, repomanager: rm, sink: sink}
}

// Push creates a notification for userID unless the matching settings toggle
// is off, then publishes it live. Producers (new subscriber, tip received)
// call this instead of writing the store directly.
func (s *NotificationService) Push(ctx context.Context, userID string, kind models.NotificationType, text string) error {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return err
	}

	enabled := true
	switch kind {
	case models.NotificationFollower:
		enabled = user.Settings.NotifyFollowers
	case models.NotificationPurchase:
		enabled = user.Settings.NotifyPurchases
	case models.NotificationMessage:
		enabled = user.Settings.NotifyMessages
	case models.NotificationUpdate:
		enabled = user.Settings.NotifyUpdates
	}
	if !enabled {
		return nil
	}

	n, err := s.repomanager.Notifications(s.db).Create(ctx, &models.Notification{
		UserID: userID,
		Type:   kind,
		Text:   text,
	})
	if err != nil {
		return err
	}

	s.sink.Publish(ctx, userID, Event{Type: EventNotificationNew, Payload: n})
	return nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string) ([]*models.Notification, error) {
	return s.repomanager.Notifications(s.db).ListForUser(ctx, userID)
}

// UnreadCount counts notifications with read = false.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repomanager.Notifications(s.db).CountUnread(ctx, userID)
}

// MarkAllRead marks the snapshot of unread notifications taken at call time.
// Notifications arriving while the loop runs are left for the next call.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	repo := s.repomanager.Notifications(s.db)

	ids, err := repo.ListUnreadIDs(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := repo.MarkRead(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
