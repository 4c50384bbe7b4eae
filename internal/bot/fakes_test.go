package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/carelink/bpbot/internal/domain"
	"github.com/carelink/bpbot/internal/i18n"
	"github.com/carelink/bpbot/internal/store"
)

var errDBDown = errors.New("connection refused")

type fakeLinks struct {
	mu          sync.Mutex
	links       map[int64]domain.PatientLink
	upserts     int
	upsertErr   error
	lookupErr   error
	languageErr error
}

func newFakeLinks() *fakeLinks {
	return &fakeLinks{links: make(map[int64]domain.PatientLink)}
}

func (f *fakeLinks) link(chatID int64, patientID string, lang domain.Language) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[chatID] = domain.PatientLink{PatientID: patientID, ChatID: chatID, Language: lang}
}

func (f *fakeLinks) IsLinked(_ context.Context, chatID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return false, &store.PersistenceError{Op: "is_linked", Err: f.lookupErr}
	}
	_, ok := f.links[chatID]
	return ok, nil
}

func (f *fakeLinks) Language(_ context.Context, chatID int64) (domain.Language, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.languageErr != nil {
		return i18n.Default, &store.PersistenceError{Op: "language", Err: f.languageErr}
	}
	l, ok := f.links[chatID]
	if !ok {
		return i18n.Default, nil
	}
	return l.Language, nil
}

func (f *fakeLinks) PatientID(_ context.Context, chatID int64) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return "", false, &store.PersistenceError{Op: "patient_id", Err: f.lookupErr}
	}
	l, ok := f.links[chatID]
	return l.PatientID, ok, nil
}

func (f *fakeLinks) UpsertLink(_ context.Context, link domain.PatientLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return &store.PersistenceError{Op: "upsert_link", Err: f.upsertErr}
	}
	if existing, ok := f.links[link.ChatID]; ok {
		existing.PatientID = link.PatientID
		existing.Language = link.Language
		f.links[link.ChatID] = existing
		return nil
	}
	f.links[link.ChatID] = link
	return nil
}

func (f *fakeLinks) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts
}

type fakeReadings struct {
	mu   sync.Mutex
	rows []domain.Reading
	err  error
}

func (f *fakeReadings) InsertReading(_ context.Context, r domain.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return &store.PersistenceError{Op: "insert_reading", Err: f.err}
	}
	f.rows = append(f.rows, r)
	return nil
}

func (f *fakeReadings) forPatient(patientID string) []domain.Reading {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Reading
	for _, r := range f.rows {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeReadings) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakeSender struct {
	mu   sync.Mutex
	sent []Reply
	err  error
}

func (f *fakeSender) Send(_ context.Context, replies []Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, replies...)
	return nil
}

func (f *fakeSender) forChat(chatID int64) []Reply {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Reply
	for _, r := range f.sent {
		if r.ChatID == chatID {
			out = append(out, r)
		}
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
