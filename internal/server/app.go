// Package server wires configuration, storage, services, the live hub, and
// the HTTP API together and runs them until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nozoku/nozoku-server/internal/logging"
	"github.com/nozoku/nozoku-server/internal/server/config"
	"github.com/nozoku/nozoku-server/internal/server/httpapi"
	"github.com/nozoku/nozoku-server/internal/server/repositories/repomanager"
	"github.com/nozoku/nozoku-server/internal/server/services"
	"github.com/nozoku/nozoku-server/internal/server/ws"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *httpapi.Server
	hub    *ws.Hub
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	hub := ws.NewHub(logger)

	userService := services.NewUserService(db, rm, cfg)
	messagingService := services.NewMessagingService(db, rm, hub)
	hub.SetMessaging(messagingService)
	notificationService := services.NewNotificationService(db, rm, hub)
	subscriptionService := services.NewSubscriptionService(db, rm, notificationService, logger)
	walletService := services.NewWalletService(db, rm, notificationService, logger)
	storageService := services.NewStorageService(db, rm, cfg)

	api := httpapi.NewServer(cfg, logger,
		userService, messagingService, notificationService,
		subscriptionService, walletService, storageService, hub)

	return &App{config: cfg, logger: logger, db: db, api: api, hub: hub}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.hub.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.api.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server error", "error", err)
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
