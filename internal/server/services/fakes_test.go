package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nozoku/nozoku-server/internal/common"
	"github.com/nozoku/nozoku-server/internal/dbx"
	"github.com/nozoku/nozoku-server/internal/server/models"
	conversationsrepo "github.com/nozoku/nozoku-server/internal/server/repositories/conversations"
	mediarepo "github.com/nozoku/nozoku-server/internal/server/repositories/media"
	messagesrepo "github.com/nozoku/nozoku-server/internal/server/repositories/messages"
	notificationsrepo "github.com/nozoku/nozoku-server/internal/server/repositories/notifications"
	paymentsrepo "github.com/nozoku/nozoku-server/internal/server/repositories/payments"
	refreshtokensrepo "github.com/nozoku/nozoku-server/internal/server/repositories/refreshtokens"
	subscriptionsrepo "github.com/nozoku/nozoku-server/internal/server/repositories/subscriptions"
	transactionsrepo "github.com/nozoku/nozoku-server/internal/server/repositories/transactions"
	usersrepo "github.com/nozoku/nozoku-server/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// captureSink records every published event for assertions.
type captureSink struct {
	events []capturedEvent
}

type capturedEvent struct {
	userID string
	event  Event
}

func (c *captureSink) Publish(_ context.Context, userID string, event Event) {
	c.events = append(c.events, capturedEvent{userID: userID, event: event})
}

func (c *captureSink) countFor(userID, eventType string) int {
	n := 0
	for _, e := range c.events {
		if e.userID == userID && e.event.Type == eventType {
			n++
		}
	}
	return n
}

// fakeRepoManager hands out in-memory repositories, ignoring the DBTX so a
// service's transactional and plain paths hit the same state.
type fakeRepoManager struct {
	users         *fakeUsersRepo
	conversations *fakeConversationsRepo
	messages      *fakeMessagesRepo
	subscriptions *fakeSubscriptionsRepo
	payments      *fakePaymentsRepo
	notifications *fakeNotificationsRepo
	transactions  *fakeTransactionsRepo
	refreshTokens *fakeRefreshTokensRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:         &fakeUsersRepo{byID: map[string]*models.User{}},
		conversations: &fakeConversationsRepo{byID: map[string]*models.Conversation{}},
		messages:      &fakeMessagesRepo{},
		subscriptions: &fakeSubscriptionsRepo{set: map[string]bool{}},
		payments:      &fakePaymentsRepo{seen: map[string]bool{}},
		notifications: &fakeNotificationsRepo{},
		transactions:  &fakeTransactionsRepo{},
		refreshTokens: &fakeRefreshTokensRepo{tokens: map[string]*models.RefreshToken{}},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository          { return m.users }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository {
	return m.refreshTokens
}
func (m *fakeRepoManager) Conversations(dbx.DBTX) conversationsrepo.Repository {
	return m.conversations
}
func (m *fakeRepoManager) Messages(dbx.DBTX) messagesrepo.Repository { return m.messages }
func (m *fakeRepoManager) Subscriptions(dbx.DBTX) subscriptionsrepo.Repository {
	return m.subscriptions
}
func (m *fakeRepoManager) Payments(dbx.DBTX) paymentsrepo.Repository { return m.payments }
func (m *fakeRepoManager) Notifications(dbx.DBTX) notificationsrepo.Repository {
	return m.notifications
}
func (m *fakeRepoManager) Transactions(dbx.DBTX) transactionsrepo.Repository {
	return m.transactions
}
func (m *fakeRepoManager) Media(dbx.DBTX) mediarepo.Repository { return &fakeMediaRepo{} }

// --- users ---

type fakeUsersRepo struct {
	byID   map[string]*models.User
	nextID int
}

func (f *fakeUsersRepo) add(u *models.User) *models.User {
	if u.ID == "" {
		f.nextID++
		u.ID = fmt.Sprintf("u-%d", f.nextID)
	}
	if u.SubscriptionMode == "" {
		u.SubscriptionMode = models.SubscriptionFree
	}
	if u.VerificationStatus == "" {
		u.VerificationStatus = models.VerificationUnverified
	}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.CreatedAt = time.Now()
	return f.add(u), nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &models.Profile{
		ID: u.ID, DisplayName: u.DisplayName, AvatarKey: u.AvatarKey, Bio: u.Bio,
		IsCreator: u.IsCreator, SubscriptionMode: u.SubscriptionMode,
		SubscriptionPrice: u.SubscriptionPrice,
	}, nil
}

func (f *fakeUsersRepo) UpdateProfile(_ context.Context, id, displayName, bio, avatarKey string) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.DisplayName, u.Bio, u.AvatarKey = displayName, bio, avatarKey
	return nil
}

func (f *fakeUsersRepo) UpdateSettings(_ context.Context, id string, s models.Settings) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Settings = s
	return nil
}

func (f *fakeUsersRepo) UpdatePassword(_ context.Context, id string, hash []byte) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsersRepo) UpdateCreatorOptions(_ context.Context, id string, mode models.SubscriptionMode, price int64) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.IsCreator = true
	u.SubscriptionMode = mode
	u.SubscriptionPrice = price
	return nil
}

func (f *fakeUsersRepo) SetVerificationPending(_ context.Context, id, idKey, selfieKey string) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.VerificationStatus = models.VerificationPending
	u.VerificationIDKey = idKey
	u.VerificationSelfieKey = selfieKey
	return nil
}

func (f *fakeUsersRepo) ApproveVerification(_ context.Context, id string) error {
	u, ok := f.byID[id]
	if !ok || u.VerificationStatus != models.VerificationPending {
		return common.ErrorNotFound
	}
	u.VerificationStatus = models.VerificationVerified
	return nil
}

func (f *fakeUsersRepo) SetMonetization(_ context.Context, id string, enabled bool) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.MonetizationEnabled = enabled
	return nil
}

func (f *fakeUsersRepo) Credit(_ context.Context, id string, amount int64) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.WalletBalance += amount
	return nil
}

func (f *fakeUsersRepo) Debit(_ context.Context, id string, amount int64) error {
	u, ok := f.byID[id]
	if !ok || u.WalletBalance < amount {
		return common.ErrInsufficientBalance
	}
	u.WalletBalance -= amount
	return nil
}

// --- conversations ---

type fakeConversationsRepo struct {
	byID map[string]*models.Conversation
}

func (f *fakeConversationsRepo) CreateIfAbsent(_ context.Context, conv *models.Conversation) (bool, error) {
	if _, ok := f.byID[conv.ID]; ok {
		return false, nil
	}
	c := *conv
	c.CreatedAt = time.Now()
	c.LastTimestamp = time.Unix(0, 0)
	f.byID[c.ID] = &c
	return true, nil
}

func (f *fakeConversationsRepo) Get(_ context.Context, id string) (*models.Conversation, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

func (f *fakeConversationsRepo) ListForUser(_ context.Context, userID string) ([]*models.Conversation, error) {
	var result []*models.Conversation
	for _, c := range f.byID {
		if c.HasParticipant(userID) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastTimestamp.After(result[j].LastTimestamp)
	})
	return result, nil
}

func (f *fakeConversationsRepo) SetLastMessage(_ context.Context, id, senderID, text string, ts time.Time, unreadA, unreadB bool) error {
	c, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	c.LastSenderID, c.LastText, c.LastTimestamp = senderID, text, ts
	c.UnreadByA, c.UnreadByB = unreadA, unreadB
	return nil
}

func (f *fakeConversationsRepo) MarkRead(_ context.Context, id, userID string) error {
	c, ok := f.byID[id]
	if !ok {
		return nil
	}
	if c.ParticipantA == userID {
		c.UnreadByA = false
	}
	if c.ParticipantB == userID {
		c.UnreadByB = false
	}
	return nil
}

func (f *fakeConversationsRepo) CountUnreadFor(_ context.Context, userID string) (int, error) {
	n := 0
	for _, c := range f.byID {
		if c.ParticipantA == userID && c.UnreadByA {
			n++
		}
		if c.ParticipantB == userID && c.UnreadByB {
			n++
		}
	}
	return n, nil
}

// --- messages ---

type fakeMessagesRepo struct {
	msgs   []*models.Message
	nextID int
}

func (f *fakeMessagesRepo) Create(_ context.Context, msg *models.Message) (*models.Message, error) {
	f.nextID++
	msg.ID = fmt.Sprintf("m-%d", f.nextID)
	msg.CreatedAt = time.Now()
	f.msgs = append(f.msgs, msg)
	return msg, nil
}

func (f *fakeMessagesRepo) ListByConversation(_ context.Context, conversationID string) ([]*models.Message, error) {
	var result []*models.Message
	for _, m := range f.msgs {
		if m.ConversationID == conversationID {
			result = append(result, m)
		}
	}
	return result, nil
}

// --- subscriptions ---

type fakeSubscriptionsRepo struct {
	set map[string]bool

	// addErr makes the next Add fail once.
	addErr error
}

func subKey(creatorID, subscriberID string) string { return creatorID + "/" + subscriberID }

func (f *fakeSubscriptionsRepo) Add(_ context.Context, creatorID, subscriberID string) (bool, error) {
	if f.addErr != nil {
		err := f.addErr
		f.addErr = nil
		return false, err
	}
	k := subKey(creatorID, subscriberID)
	if f.set[k] {
		return false, nil
	}
	f.set[k] = true
	return true, nil
}

func (f *fakeSubscriptionsRepo) Remove(_ context.Context, creatorID, subscriberID string) error {
	delete(f.set, subKey(creatorID, subscriberID))
	return nil
}

func (f *fakeSubscriptionsRepo) Exists(_ context.Context, creatorID, subscriberID string) (bool, error) {
	return f.set[subKey(creatorID, subscriberID)], nil
}

// --- payments ---

type fakePaymentsRepo struct {
	seen map[string]bool
}

func (f *fakePaymentsRepo) Record(_ context.Context, reference, _, _ string, _ int64) (bool, error) {
	if f.seen[reference] {
		return false, nil
	}
	f.seen[reference] = true
	return true, nil
}

// --- notifications ---

type fakeNotificationsRepo struct {
	list   []*models.Notification
	nextID int
}

func (f *fakeNotificationsRepo) Create(_ context.Context, n *models.Notification) (*models.Notification, error) {
	f.nextID++
	n.ID = fmt.Sprintf("n-%d", f.nextID)
	n.Timestamp = time.Now()
	f.list = append(f.list, n)
	return n, nil
}

func (f *fakeNotificationsRepo) ListForUser(_ context.Context, userID string) ([]*models.Notification, error) {
	var result []*models.Notification
	for _, n := range f.list {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result, nil
}

func (f *fakeNotificationsRepo) ListUnreadIDs(_ context.Context, userID string) ([]string, error) {
	var ids []string
	for _, n := range f.list {
		if n.UserID == userID && !n.Read {
			ids = append(ids, n.ID)
		}
	}
	return ids, nil
}

func (f *fakeNotificationsRepo) MarkRead(_ context.Context, id string) error {
	for _, n := range f.list {
		if n.ID == id {
			n.Read = true
		}
	}
	return nil
}

func (f *fakeNotificationsRepo) CountUnread(_ context.Context, userID string) (int, error) {
	n := 0
	for _, item := range f.list {
		if item.UserID == userID && !item.Read {
			n++
		}
	}
	return n, nil
}

// --- transactions ---

type fakeTransactionsRepo struct {
	rows   []*models.Transaction
	nextID int
}

func (f *fakeTransactionsRepo) Create(_ context.Context, t *models.Transaction) (*models.Transaction, error) {
	f.nextID++
	t.ID = fmt.Sprintf("t-%d", f.nextID)
	t.Date = time.Now()
	f.rows = append(f.rows, t)
	return t, nil
}

func (f *fakeTransactionsRepo) ListForUser(_ context.Context, userID string) ([]*models.Transaction, error) {
	var result []*models.Transaction
	for _, t := range f.rows {
		if t.Involves(userID) {
			result = append(result, t)
		}
	}
	return result, nil
}

// --- refresh tokens ---

type fakeRefreshTokensRepo struct {
	tokens map[string]*models.RefreshToken
}

func (f *fakeRefreshTokensRepo) Create(_ context.Context, userID, token string, validity time.Duration) error {
	f.tokens[token] = &models.RefreshToken{
		UserID: userID, Token: token, Expires: time.Now().Add(validity),
	}
	return nil
}

func (f *fakeRefreshTokensRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeRefreshTokensRepo) Delete(_ context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

// --- media ---

type fakeMediaRepo struct{}

func (f *fakeMediaRepo) Add(_ context.Context, item *models.MediaItem) (*models.MediaItem, error) {
	item.ID = "media-1"
	item.CreatedAt = time.Now()
	return item, nil
}

func (f *fakeMediaRepo) ListForUser(context.Context, string) ([]*models.MediaItem, error) {
	return nil, nil
}
