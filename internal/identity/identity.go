// Package identity derives chat identity from inbound updates and carries it,
// with a per-update trace ID, on the request context.
package identity

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

type contextKey int

const (
	chatIDKey contextKey = iota
	traceIDKey
)

// Chat is the sender identity of one inbound message.
type Chat struct {
	ChatID   int64
	Username string
	Text     string
}

// FromUpdate extracts the chat identity from a new text message. ok is false
// for everything else: edits, media without text, callbacks, joins.
func FromUpdate(u tgbotapi.Update) (Chat, bool) {
	msg := u.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return Chat{}, false
	}

	c := Chat{
		ChatID: msg.Chat.ID,
		Text:   strings.TrimSpace(msg.Text),
	}
	if msg.From != nil {
		c.Username = msg.From.UserName
	}
	return c, true
}

// WithTrace attaches chatID and a fresh trace ID to ctx.
func WithTrace(ctx context.Context, chatID int64) context.Context {
	ctx = context.WithValue(ctx, chatIDKey, chatID)
	return context.WithValue(ctx, traceIDKey, uuid.NewString())
}

// ChatIDFromContext extracts the chat ID from the context.
func ChatIDFromContext(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(chatIDKey).(int64)
	return v, ok
}

// TraceIDFromContext extracts the trace ID from the context.
func TraceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

// Logger returns base annotated with the chat and trace IDs found on ctx.
func Logger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	if chatID, ok := ChatIDFromContext(ctx); ok {
		base = base.With("chat_id", chatID)
	}
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		base = base.With("trace_id", traceID)
	}
	return base
}
