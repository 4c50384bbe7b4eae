package bot

import (
	"context"
	"log/slog"

	"github.com/carelink/bpbot/internal/identity"
)

// Dispatcher runs inbound messages through the engine one chat at a time and
// delivers the replies.
type Dispatcher struct {
	engine   *Engine
	sessions SessionLocker
	sender   Sender
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(engine *Engine, sessions SessionLocker, sender Sender, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		engine:   engine,
		sessions: sessions,
		sender:   sender,
		logger:   logger,
	}
}

// Dispatch handles msg and sends its replies. Only delivery failures are
// returned; conversation and persistence failures are answered in-chat.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) error {
	ctx = identity.WithTrace(ctx, msg.ChatID)
	log := identity.Logger(ctx, d.logger)

	unlock := d.sessions.Lock(msg.ChatID)
	defer unlock()

	replies := d.engine.Handle(ctx, msg)
	d.sessions.Touch(msg.ChatID)

	log.Debug("Message handled", "replies", len(replies))
	if len(replies) == 0 {
		return nil
	}
	if err := d.sender.Send(ctx, replies); err != nil {
		log.Error("Failed to deliver replies", "error", err)
		return err
	}
	return nil
}
