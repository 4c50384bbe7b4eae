// bpbot - Telegram blood pressure collection bot
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/carelink/bpbot/internal/api"
	"github.com/carelink/bpbot/internal/bot"
	"github.com/carelink/bpbot/internal/config"
	"github.com/carelink/bpbot/internal/events"
	"github.com/carelink/bpbot/internal/session"
	"github.com/carelink/bpbot/internal/store"
	"github.com/carelink/bpbot/internal/telegram"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("Starting bot", "db_driver", cfg.DBDriver, "webhook", cfg.UseWebhook())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	repo, err := openRepository(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	publisher := newPublisher(cfg, logger)
	defer func() {
		if closeErr := publisher.Close(); closeErr != nil {
			slog.Error("Failed to close event publisher", "error", closeErr)
		}
	}()
	readings := events.NewPublishingReadings(repo, publisher, logger)

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		slog.Error("Failed to connect to Telegram", "error", err)
		os.Exit(1)
	}
	slog.Info("Authorized on Telegram", "username", botAPI.Self.UserName)

	sessions := session.NewManager(cfg.SessionTimeout)
	engine := bot.NewEngine(sessions, repo, readings, logger)
	engine.SetBotUsername(botAPI.Self.UserName)
	dispatcher := bot.NewDispatcher(engine, sessions, telegram.NewSender(botAPI), logger)
	adapter := telegram.NewAdapter(dispatcher, logger)

	session.StartSweeper(ctx, sessions, cfg.SessionSweepInterval, nil)

	if cfg.UseWebhook() {
		err = serveWebhook(ctx, cfg, botAPI, adapter, logger)
	} else {
		err = poll(ctx, cfg, botAPI, adapter, logger)
	}
	if err != nil {
		slog.Error("Bot stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("Bot stopped successfully")
}

func openRepository(ctx context.Context, cfg *config.Config) (store.Repository, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return store.NewSQLite(ctx, cfg.DBPath)
	case config.DriverPostgres:
		return store.NewPostgres(ctx, cfg.PostgresDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

func newPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		slog.Info("Reading events disabled (KAFKA_BROKERS not set)")
		return events.NopPublisher{}
	}
	slog.Info("Reading events enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	return events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
}

func serveWebhook(ctx context.Context, cfg *config.Config, botAPI telegram.API, adapter *telegram.Adapter, logger *slog.Logger) error {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	api.NewWebhookHandler(adapter, logger).RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if err := telegram.SetWebhook(botAPI, cfg.WebhookURL, cfg.DropPendingUpdates); err != nil {
		_ = srv.Close()
		return err
	}
	slog.Info("Webhook registered", "url", telegram.WebhookURL(cfg.WebhookURL))

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func poll(ctx context.Context, cfg *config.Config, botAPI telegram.API, adapter *telegram.Adapter, logger *slog.Logger) error {
	if err := telegram.DeleteWebhook(botAPI, cfg.DropPendingUpdates); err != nil {
		return err
	}

	poller := telegram.NewPoller(botAPI, adapter, telegram.PollerConfig{
		Timeout:  cfg.PollTimeout,
		Interval: cfg.PollInterval,
	}, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		poller.Run(ctx)
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully...")

	// An in-flight getUpdates call cannot be cancelled; give it one poll
	// timeout to return.
	select {
	case <-done:
	case <-time.After(cfg.PollTimeout + 5*time.Second):
		slog.Warn("Poller did not stop in time")
	}
	return nil
}
