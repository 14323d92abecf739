package services

import (
	"context"
	"testing"

	"github.com/nozoku/nozoku-server/internal/server/models"
)

func TestPush_GatedBySettings(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	settings := models.DefaultSettings()
	settings.NotifyFollowers = false
	rm.users.add(&models.User{ID: "alice", Settings: settings})

	sink := &captureSink{}
	svc := NewNotificationService(db, rm, sink)

	if err := svc.Push(context.Background(), "alice", models.NotificationFollower, "new subscriber"); err != nil {
		t.Fatalf("Push error: %v", err)
	}
	if len(rm.notifications.list) != 0 {
		t.Fatalf("disabled type must not be stored: %+v", rm.notifications.list)
	}
	if len(sink.events) != 0 {
		t.Fatalf("disabled type must not be published: %+v", sink.events)
	}

	// A type the user still wants goes through.
	if err := svc.Push(context.Background(), "alice", models.NotificationPurchase, "tip received"); err != nil {
		t.Fatalf("Push error: %v", err)
	}
	if len(rm.notifications.list) != 1 {
		t.Fatalf("want 1 stored notification, got %d", len(rm.notifications.list))
	}
	if sink.countFor("alice", EventNotificationNew) != 1 {
		t.Fatalf("want 1 published event: %+v", sink.events)
	}
}

func TestMarkAllRead_SnapshotSemantics(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	rm.users.add(&models.User{ID: "alice", Settings: models.DefaultSettings()})

	svc := NewNotificationService(db, rm, NopSink{})

	for i := 0; i < 3; i++ {
		if err := svc.Push(context.Background(), "alice", models.NotificationUpdate, "update"); err != nil {
			t.Fatalf("Push error: %v", err)
		}
	}

	if err := svc.MarkAllRead(context.Background(), "alice"); err != nil {
		t.Fatalf("MarkAllRead error: %v", err)
	}

	n, err := svc.UnreadCount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("UnreadCount error: %v", err)
	}
	if n != 0 {
		t.Fatalf("want 0 unread, got %d", n)
	}

	// New arrivals after the snapshot stay unread for the next call.
	if err := svc.Push(context.Background(), "alice", models.NotificationUpdate, "late"); err != nil {
		t.Fatalf("Push error: %v", err)
	}
	n, err = svc.UnreadCount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("UnreadCount error: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 unread, got %d", n)
	}
}

func TestList_OnlyOwnNotifications(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	rm.users.add(&models.User{ID: "alice", Settings: models.DefaultSettings()})
	rm.users.add(&models.User{ID: "bob", Settings: models.DefaultSettings()})

	svc := NewNotificationService(db, rm, NopSink{})

	if err := svc.Push(context.Background(), "alice", models.NotificationUpdate, "for alice"); err != nil {
		t.Fatalf("Push error: %v", err)
	}
	if err := svc.Push(context.Background(), "bob", models.NotificationUpdate, "for bob"); err != nil {
		t.Fatalf("Push error: %v", err)
	}

	list, err := svc.List(context.Background(), "alice")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 1 || list[0].Text != "for alice" {
		t.Fatalf("unexpected list: %+v", list)
	}
}
