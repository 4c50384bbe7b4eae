// Package telegram adapts the Telegram Bot API to the conversation engine:
// it turns updates into bot messages and replies into API calls.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/carelink/bpbot/internal/bot"
	"github.com/carelink/bpbot/internal/identity"
)

// API is the subset of *tgbotapi.BotAPI used by this package.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

var _ API = (*tgbotapi.BotAPI)(nil)

// TransportError reports a reply that could not be delivered.
type TransportError struct {
	ChatID int64
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("telegram: deliver to chat %d: %v", e.ChatID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Sender delivers bot replies through the Bot API.
type Sender struct {
	api API
}

// NewSender creates a Sender.
func NewSender(api API) *Sender {
	return &Sender{api: api}
}

// Send delivers replies in order and stops at the first failure.
func (s *Sender) Send(ctx context.Context, replies []bot.Reply) error {
	for _, r := range replies {
		if err := ctx.Err(); err != nil {
			return &TransportError{ChatID: r.ChatID, Err: err}
		}
		if _, err := s.api.Send(messageConfig(r)); err != nil {
			return &TransportError{ChatID: r.ChatID, Err: err}
		}
	}
	return nil
}

func messageConfig(r bot.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(r.ChatID, r.Text)
	if r.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}

	switch {
	case r.Keyboard != nil && len(r.Keyboard.Buttons) > 0:
		row := make([]tgbotapi.KeyboardButton, len(r.Keyboard.Buttons))
		for i, b := range r.Keyboard.Buttons {
			row[i] = tgbotapi.NewKeyboardButton(b)
		}
		kb := tgbotapi.NewReplyKeyboard(row)
		kb.ResizeKeyboard = true
		kb.OneTimeKeyboard = r.Keyboard.OneTime
		msg.ReplyMarkup = kb
	case r.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}
	return msg
}

// Dispatcher is the conversation entry point the adapter feeds.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg bot.Message) error
}

// Adapter turns Bot API updates into bot messages.
type Adapter struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewAdapter creates an Adapter.
func NewAdapter(dispatcher Dispatcher, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{dispatcher: dispatcher, logger: logger}
}

// HandleUpdate dispatches text messages and ignores every other update kind.
func (a *Adapter) HandleUpdate(ctx context.Context, u tgbotapi.Update) error {
	chat, ok := identity.FromUpdate(u)
	if !ok {
		a.logger.Debug("Ignoring update without a message", "update_id", u.UpdateID)
		return nil
	}
	return a.dispatcher.Dispatch(ctx, bot.Message{
		ChatID:   chat.ChatID,
		Username: chat.Username,
		Text:     chat.Text,
	})
}
