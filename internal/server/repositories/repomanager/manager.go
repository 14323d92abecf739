package repomanager

import (
	"context"
	"database/sql"

	"github.com/nozoku/nozoku-server/internal/dbx"
	"github.com/nozoku/nozoku-server/internal/server/repositories/conversations"
	"github.com/nozoku/nozoku-server/internal/server/repositories/media"
	"github.com/nozoku/nozoku-server/internal/server/repositories/messages"
	"github.com/nozoku/nozoku-server/internal/server/repositories/notifications"
	"github.com/nozoku/nozoku-server/internal/server/repositories/payments"
	"github.com/nozoku/nozoku-server/internal/server/repositories/refreshtokens"
	"github.com/nozoku/nozoku-server/internal/server/repositories/subscriptions"
	"github.com/nozoku/nozoku-server/internal/server/repositories/transactions"
	"github.com/nozoku/nozoku-server/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so multi-repository
// flows can share a transaction by handing each repository the same *sql.Tx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Conversations(db dbx.DBTX) conversations.Repository
	Messages(db dbx.DBTX) messages.Repository
	Subscriptions(db dbx.DBTX) subscriptions.Repository
	Payments(db dbx.DBTX) payments.Repository
	Notifications(db dbx.DBTX) notifications.Repository
	Transactions(db dbx.DBTX) transactions.Repository
	Media(db dbx.DBTX) media.Repository
}
