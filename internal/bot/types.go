// Package bot implements the blood-pressure conversation: onboarding
// (language, patient ID) followed by systolic, diastolic and pulse entry.
package bot

import (
	"context"

	"github.com/carelink/bpbot/internal/domain"
)

// Commands understood by the bot.
const (
	CommandStart = "/start"
	CommandEnter = "/enter"
)

// Message is one inbound text message.
type Message struct {
	ChatID   int64
	Username string
	Text     string
}

// Keyboard is a row of reply buttons shown under a message.
type Keyboard struct {
	Buttons []string
	// OneTime hides the keyboard after the first press.
	OneTime bool
}

// Reply is one outbound message.
type Reply struct {
	ChatID int64
	Text   string
	// Markdown enables lightweight emphasis markup.
	Markdown       bool
	Keyboard       *Keyboard
	RemoveKeyboard bool
}

// SessionStore is the in-memory conversation state the engine reads and
// mutates.
type SessionStore interface {
	Get(chatID int64) (domain.Session, bool)
	Put(s domain.Session)
	Remove(chatID int64)
}

// SessionLocker serializes processing per chat and records activity.
type SessionLocker interface {
	Lock(chatID int64) func()
	Touch(chatID int64)
}

// Sender delivers replies to the chat platform.
type Sender interface {
	Send(ctx context.Context, replies []Reply) error
}
