package telegram

import (
	"context"
	"io"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type pollResult struct {
	updates []tgbotapi.Update
	err     error
}

// fakeAPI records outgoing calls and replays scripted getUpdates results.
type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	polls    []tgbotapi.UpdateConfig
	results  []pollResult
	sendErr  error
	failAt   int
	reqErr   error
	// onDrained runs when GetUpdates is called after results are exhausted.
	onDrained func()
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil && len(f.sent) == f.failAt {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	if f.reqErr != nil {
		return nil, f.reqErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.mu.Lock()
	f.polls = append(f.polls, cfg)
	if len(f.results) == 0 {
		drained := f.onDrained
		f.mu.Unlock()
		if drained != nil {
			drained()
		}
		return nil, nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	f.mu.Unlock()
	return r.updates, r.err
}

type recordingHandler struct {
	mu      sync.Mutex
	ids     []int
	failOne int
}

func (h *recordingHandler) HandleUpdate(_ context.Context, u tgbotapi.Update) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, u.UpdateID)
	if u.UpdateID == h.failOne {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func textUpdate(id int, chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: chatID},
			From: &tgbotapi.User{UserName: "patient"},
			Text: text,
		},
	}
}
