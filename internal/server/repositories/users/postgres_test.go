package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nozoku/nozoku-server/internal/common"
	"github.com/nozoku/nozoku-server/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "display_name", "bio", "avatar_key",
		"is_creator", "subscription_mode", "subscription_price", "wallet_balance",
		"verification_status", "monetization_enabled",
		"verification_id_key", "verification_selfie_key",
		"notify_followers", "notify_purchases", "notify_messages", "notify_updates",
		"hide_wallet", "message_privacy", "created_at",
	})
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)INSERT\s+INTO\s+users\s*\(email,\s*password_hash,\s*display_name,.*RETURNING\s+id,\s*created_at`

	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("alice@example.com", []byte("hash"), "Alice",
			true, true, true, true, false, models.MessagePrivacyEveryone).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", now))

	u := &models.User{
		Email:        "alice@example.com",
		PasswordHash: []byte("hash"),
		DisplayName:  "Alice",
		Settings:     models.DefaultSettings(),
	}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" || got.SubscriptionMode != models.SubscriptionFree {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{
		Email: "alice@example.com", PasswordHash: []byte("h"), DisplayName: "Alice",
		Settings: models.DefaultSettings(),
	})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := userRows().AddRow(
		"u-1", "alice@example.com", []byte("hash"), "Alice", "", "",
		false, "free", int64(0), int64(250),
		"unverified", false, "", "",
		true, true, true, true, false, "everyone", time.Now())

	mock.ExpectQuery(`SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1`).
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != "u-1" || got.WalletBalance != 250 || !got.Settings.NotifyMessages {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetProfile_SubscriberCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "display_name", "avatar_key", "bio", "is_creator",
		"subscription_mode", "subscription_price", "count",
	}).AddRow("u-2", "Bob", "", "bio", true, "paid", int64(500), 7)

	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+subscriptions`).
		WithArgs("u-2").
		WillReturnRows(rows)

	got, err := repo.GetProfile(context.Background(), "u-2")
	if err != nil {
		t.Fatalf("GetProfile error: %v", err)
	}
	if got.Subscribers != 7 || got.SubscriptionPrice != 500 {
		t.Fatalf("unexpected profile: %+v", got)
	}
}

func TestApproveVerification_NotPending(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+verification_status\s*=\s*'verified'`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ApproveVerification(context.Background(), "u-1")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestCredit_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+wallet_balance\s*=\s*wallet_balance\s*\+\s*\$2`).
		WithArgs("u-1", int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Credit(context.Background(), "u-1", 100); err != nil {
		t.Fatalf("Credit error: %v", err)
	}
}

func TestDebit_InsufficientBalance(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+wallet_balance\s*=\s*wallet_balance\s*-\s*\$2\s+WHERE\s+id\s*=\s*\$1\s+AND\s+wallet_balance\s*>=\s*\$2`).
		WithArgs("u-1", int64(9999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Debit(context.Background(), "u-1", 9999)
	if !errors.Is(err, common.ErrInsufficientBalance) {
		t.Fatalf("want common.ErrInsufficientBalance, got %v", err)
	}
}

func TestDebit_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+wallet_balance\s*=\s*wallet_balance\s*-\s*\$2`).
		WithArgs("u-1", int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Debit(context.Background(), "u-1", 100); err != nil {
		t.Fatalf("Debit error: %v", err)
	}
}
