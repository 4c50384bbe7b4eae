package telegram

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxPollBackoff = time.Minute

// UpdateHandler consumes one update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u tgbotapi.Update) error
}

// PollerConfig controls long polling.
type PollerConfig struct {
	// Timeout is the long-poll timeout sent to Telegram.
	Timeout time.Duration
	// Interval is the pause between two successful polls.
	Interval time.Duration
}

// Poller retrieves updates with getUpdates and hands them to a handler.
type Poller struct {
	api     API
	handler UpdateHandler
	cfg     PollerConfig
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration)
}

// NewPoller creates a long-poll loop.
func NewPoller(api API, handler UpdateHandler, cfg PollerConfig, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Poller{
		api:     api,
		handler: handler,
		cfg:     cfg,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// Run polls until ctx is cancelled. Errors from Telegram never stop the
// loop; they are logged and retried with exponential backoff.
func (p *Poller) Run(ctx context.Context) {
	offset := 0
	failures := 0

	p.logger.Info("Long polling started", "timeout", p.cfg.Timeout, "interval", p.cfg.Interval)
	for ctx.Err() == nil {
		u := tgbotapi.NewUpdate(offset)
		u.Timeout = int(p.cfg.Timeout.Seconds())

		updates, err := p.api.GetUpdates(u)
		if err != nil {
			failures++
			delay := p.backoff(err, failures)
			if isConflict(err) {
				p.logger.Warn("Another instance is polling this bot token; stop it or switch to webhook mode",
					"retry_in", delay)
			} else {
				p.logger.Error("Failed to get updates", "error", err, "attempt", failures, "retry_in", delay)
			}
			p.sleep(ctx, delay)
			continue
		}
		failures = 0

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if err := p.handler.HandleUpdate(ctx, update); err != nil {
				p.logger.Error("Failed to handle update", "update_id", update.UpdateID, "error", err)
			}
		}

		if p.cfg.Interval > 0 {
			p.sleep(ctx, p.cfg.Interval)
		}
	}
	p.logger.Info("Long polling stopped", "reason", ctx.Err())
}

func (p *Poller) backoff(err error, failures int) time.Duration {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}

	base := p.cfg.Interval
	if base <= 0 {
		base = time.Second
	}
	delay := base
	for i := 1; i < failures && delay < maxPollBackoff; i++ {
		delay *= 2
	}
	if delay > maxPollBackoff {
		delay = maxPollBackoff
	}
	return delay
}

func isConflict(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
