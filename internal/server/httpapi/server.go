// Package httpapi exposes the application services as a JSON HTTP API plus
// the WebSocket endpoint for live delivery.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/nozoku/nozoku-server/internal/logging"
	"github.com/nozoku/nozoku-server/internal/server/config"
	"github.com/nozoku/nozoku-server/internal/server/services"
	"github.com/nozoku/nozoku-server/internal/server/ws"
)

type Server struct {
	config *config.Config
	logger logging.Logger

	users         *services.UserService
	messaging     *services.MessagingService
	notifications *services.NotificationService
	subscriptions *services.SubscriptionService
	wallet        *services.WalletService
	storage       *services.StorageService
	hub           *ws.Hub
}

func NewServer(
	cfg *config.Config,
	logger logging.Logger,
	users *services.UserService,
	messaging *services.MessagingService,
	notifications *services.NotificationService,
	subscriptions *services.SubscriptionService,
	wallet *services.WalletService,
	storage *services.StorageService,
	hub *ws.Hub,
) *Server {
	return &Server{
		config:        cfg,
		logger:        logger.With("module", "httpapi"),
		users:         users,
		messaging:     messaging,
		notifications: notifications,
		subscriptions: subscriptions,
		wallet:        wallet,
		storage:       storage,
		hub:           hub,
	}
}

// Routes builds the full route table. REST routes get the request timeout;
// the WebSocket upgrade must not, its connection is long-lived.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	api := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, s.withTimeout(h))
	}

	api("POST /api/auth/register", s.handleRegister)
	api("POST /api/auth/login", s.handleLogin)
	api("POST /api/auth/refresh", s.handleRefresh)
	api("POST /api/auth/password", s.withAuth(s.handleChangePassword))

	api("GET /api/me", s.withAuth(s.handleGetMe))
	api("PUT /api/me/profile", s.withAuth(s.handleUpdateProfile))
	api("GET /api/me/settings", s.withAuth(s.handleGetSettings))
	api("PUT /api/me/settings", s.withAuth(s.handleUpdateSettings))
	api("PUT /api/me/creator", s.withAuth(s.handleUpdateCreatorOptions))
	api("GET /api/me/counters", s.withAuth(s.handleCounters))
	api("GET /api/users/{id}/profile", s.withAuth(s.handleGetProfile))

	api("POST /api/conversations", s.withAuth(s.handleCreateConversation))
	api("GET /api/conversations", s.withAuth(s.handleListConversations))
	api("GET /api/conversations/{id}/messages", s.withAuth(s.handleListMessages))
	api("POST /api/conversations/{id}/messages", s.withAuth(s.handleAppendMessage))
	api("POST /api/conversations/{id}/read", s.withAuth(s.handleMarkConversationRead))

	api("GET /api/notifications", s.withAuth(s.handleListNotifications))
	api("POST /api/notifications/read-all", s.withAuth(s.handleMarkAllNotificationsRead))

	api("POST /api/creators/{id}/subscribe", s.withAuth(s.handleSubscribe))
	api("DELETE /api/creators/{id}/subscribe", s.withAuth(s.handleUnsubscribe))
	api("GET /api/creators/{id}/subscription", s.withAuth(s.handleSubscriptionStatus))
	api("POST /api/payments/confirm", s.withAuth(s.handleConfirmPayment))

	api("POST /api/me/verification/upload-urls", s.withAuth(s.handleVerificationUploadURLs))
	api("POST /api/me/verification", s.withAuth(s.handleSubmitVerification))
	api("POST /api/admin/verification/{id}/approve", s.withAuth(s.handleApproveVerification))
	api("PUT /api/me/monetization", s.withAuth(s.handleSetMonetization))

	api("GET /api/wallet", s.withAuth(s.handleWalletBalance))
	api("POST /api/wallet/topup", s.withAuth(s.handleTopUp))
	api("POST /api/wallet/tip", s.withAuth(s.handleTip))
	api("POST /api/wallet/withdraw", s.withAuth(s.handleWithdraw))
	api("GET /api/wallet/transactions", s.withAuth(s.handleListTransactions))

	api("POST /api/media/upload-url", s.withAuth(s.handleMediaUploadURL))
	api("POST /api/media", s.withAuth(s.handleAddMedia))
	api("GET /api/users/{id}/media", s.withAuth(s.handleListMedia))

	mux.HandleFunc("GET /ws", s.withAuth(s.handleWebSocket))

	return mux
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.EndpointAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.config.EndpointAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
