package identity

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestFromUpdateMessage(t *testing.T) {
	u := tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: 555},
			From: &tgbotapi.User{ID: 555, UserName: "patient_a"},
			Text: "  120 ",
		},
	}

	c, ok := FromUpdate(u)
	if !ok {
		t.Fatal("expected identity")
	}
	if c.ChatID != 555 || c.Username != "patient_a" || c.Text != "120" {
		t.Errorf("unexpected identity %+v", c)
	}
}

func TestFromUpdateMessageWithoutSender(t *testing.T) {
	u := tgbotapi.Update{
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: 9},
			Text: "80",
		},
	}

	c, ok := FromUpdate(u)
	if !ok || c.ChatID != 9 || c.Username != "" {
		t.Fatalf("unexpected result %+v, %v", c, ok)
	}
}

func TestFromUpdateIgnoresEdits(t *testing.T) {
	u := tgbotapi.Update{
		UpdateID: 11,
		EditedMessage: &tgbotapi.Message{
			MessageID: 10,
			Chat:      &tgbotapi.Chat{ID: 9},
			Text:      "125",
		},
	}

	if c, ok := FromUpdate(u); ok {
		t.Fatalf("expected edited message to be ignored, got %+v", c)
	}
}

func TestFromUpdateIgnoresMessagesWithoutText(t *testing.T) {
	tests := map[string]*tgbotapi.Message{
		"photo": {
			Chat:    &tgbotapi.Chat{ID: 1},
			Photo:   []tgbotapi.PhotoSize{{FileID: "p1", Width: 90, Height: 90}},
			Caption: "my reading",
		},
		"sticker": {
			Chat:    &tgbotapi.Chat{ID: 1},
			Sticker: &tgbotapi.Sticker{FileID: "s1"},
		},
	}
	for name, msg := range tests {
		if c, ok := FromUpdate(tgbotapi.Update{Message: msg}); ok {
			t.Errorf("%s: expected no identity, got %+v", name, c)
		}
	}
}

func TestFromUpdateIgnoresNonMessages(t *testing.T) {
	if _, ok := FromUpdate(tgbotapi.Update{UpdateID: 3}); ok {
		t.Fatal("expected no identity for an empty update")
	}
}

func TestWithTrace(t *testing.T) {
	ctx := WithTrace(context.Background(), 42)

	chatID, ok := ChatIDFromContext(ctx)
	if !ok || chatID != 42 {
		t.Fatalf("ChatIDFromContext = %d, %v", chatID, ok)
	}
	if TraceIDFromContext(ctx) == "" {
		t.Fatal("expected trace id")
	}
	if TraceIDFromContext(WithTrace(context.Background(), 42)) == TraceIDFromContext(ctx) {
		t.Fatal("expected a fresh trace id per call")
	}
	if TraceIDFromContext(context.Background()) != "" {
		t.Fatal("expected empty trace id on bare context")
	}
}

func TestLoggerAddsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	Logger(WithTrace(context.Background(), 7), base).Info("hello")

	out := buf.String()
	if !strings.Contains(out, "chat_id=7") || !strings.Contains(out, "trace_id=") {
		t.Fatalf("missing context attributes in %q", out)
	}
}
