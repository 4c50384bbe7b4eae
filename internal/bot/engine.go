package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/carelink/bpbot/internal/domain"
	"github.com/carelink/bpbot/internal/i18n"
	"github.com/carelink/bpbot/internal/identity"
	"github.com/carelink/bpbot/internal/store"
)

// Engine is the conversation state machine. It is not safe for concurrent
// use on the same chat; Dispatcher provides the per-chat serialization.
type Engine struct {
	sessions SessionStore
	links    store.PatientLinkRepository
	readings store.ReadingRepository
	logger   *slog.Logger

	// botUsername is matched against "/cmd@name" suffixes; empty accepts any.
	botUsername string
}

// NewEngine creates a conversation engine.
func NewEngine(sessions SessionStore, links store.PatientLinkRepository, readings store.ReadingRepository, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		sessions: sessions,
		links:    links,
		readings: readings,
		logger:   logger,
	}
}

// SetBotUsername restricts addressed commands ("/start@name") to this bot.
func (e *Engine) SetBotUsername(name string) {
	e.botUsername = strings.TrimPrefix(name, "@")
}

// Handle processes one inbound message and returns the replies to send.
//
// /start is matched before anything else. Otherwise the chat's session, if
// any, decides the step; without a session the chat either starts a reading
// (linked, /enter or the menu button), sees the menu (linked) or is told to
// send /start (unlinked).
func (e *Engine) Handle(ctx context.Context, msg Message) []Reply {
	text := strings.TrimSpace(msg.Text)
	if e.addressedElsewhere(text) {
		e.log(ctx).Debug("Ignoring command addressed to another bot")
		return nil
	}
	sess, active := e.sessions.Get(msg.ChatID)

	if e.command(text) == CommandStart {
		return e.start(ctx, msg.ChatID, sess, active)
	}
	if !active {
		return e.idle(ctx, msg.ChatID, text)
	}

	switch sess.State {
	case domain.StateAwaitingLanguage:
		return e.chooseLanguage(sess, text)
	case domain.StateAwaitingPatientID:
		return e.linkPatient(ctx, sess, msg.Username, text)
	case domain.StateAwaitingSystolic:
		return e.recordSystolic(sess, text)
	case domain.StateAwaitingDiastolic:
		return e.recordDiastolic(sess, text)
	case domain.StateAwaitingPulse:
		return e.recordPulse(ctx, sess, text)
	default:
		e.log(ctx).Warn("Discarding session in unexpected state", "state", sess.State)
		e.sessions.Remove(msg.ChatID)
		return e.idle(ctx, msg.ChatID, text)
	}
}

func (e *Engine) command(text string) string {
	return command(text, e.botUsername)
}

// addressedElsewhere reports whether text is a "/cmd@name" command for a
// different bot.
func (e *Engine) addressedElsewhere(text string) bool {
	return strings.HasPrefix(text, "/") && command(text, e.botUsername) == ""
}

// command returns the bot command in text with its "@botname" suffix and
// arguments stripped. It returns "" when text is not a command or the
// suffix names a different bot than botUsername.
func command(text, botUsername string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	fields := strings.Fields(text)
	cmd, target, addressed := strings.Cut(fields[0], "@")
	if addressed && botUsername != "" && !strings.EqualFold(target, botUsername) {
		return ""
	}
	return strings.ToLower(cmd)
}

func (e *Engine) log(ctx context.Context) *slog.Logger {
	return identity.Logger(ctx, e.logger)
}

func (e *Engine) persistenceFailed(ctx context.Context, chatID int64, lang domain.Language, err error) []Reply {
	e.log(ctx).Error("Persistence failure", "error", err)
	return []Reply{textReply(chatID, i18n.Text(lang, i18n.DBError))}
}

// language returns the chat's stored language. A lookup failure is logged
// and falls back to the default language.
func (e *Engine) language(ctx context.Context, chatID int64) domain.Language {
	lang, err := e.links.Language(ctx, chatID)
	if err != nil {
		e.log(ctx).Warn("Falling back to default language", "error", err)
		return i18n.Default
	}
	if !i18n.IsSupported(lang) {
		return i18n.Default
	}
	return lang
}
