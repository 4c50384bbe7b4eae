// Package session keeps in-progress conversations in memory, keyed by chat.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/carelink/bpbot/internal/domain"
)

// DefaultTimeout is how long a conversation may stay idle before the sweep
// discards it.
const DefaultTimeout = 1800 * time.Second

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// Manager owns the chat -> session mapping. It also hands out one lock per
// chat so that updates for the same chat are processed one at a time.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]domain.Session
	locks    map[int64]*chatLock
	timeout  time.Duration
	now      func() time.Time
}

// NewManager creates a session manager with the given idle timeout.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{
		sessions: make(map[int64]domain.Session),
		locks:    make(map[int64]*chatLock),
		timeout:  timeout,
		now:      time.Now,
	}
}

// Timeout returns the idle timeout used by Sweep.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// Lock blocks until the caller holds the chat's lock and returns the
// function that releases it.
func (m *Manager) Lock(chatID int64) func() {
	m.mu.Lock()
	l, ok := m.locks[chatID]
	if !ok {
		l = &chatLock{}
		m.locks[chatID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, chatID)
		}
		m.mu.Unlock()
	}
}

// Get returns a copy of the chat's session.
func (m *Manager) Get(chatID int64) (domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	return s, ok
}

// Put stores the session and stamps its last activity.
func (m *Manager) Put(s domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.LastActivity = m.now()
	m.sessions[s.ChatID] = s
}

// Remove drops the chat's session, if any.
func (m *Manager) Remove(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}

// Touch refreshes the chat's last activity. It is a no-op when the chat has
// no session.
func (m *Manager) Touch(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return
	}
	s.LastActivity = m.now()
	m.sessions[chatID] = s
}

// Len returns the number of in-progress conversations.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than the timeout at now and returns
// the affected chat IDs. Chats that are being processed are left alone.
func (m *Manager) Sweep(now time.Time) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []int64
	for chatID, s := range m.sessions {
		if s.IdleFor(now) <= m.timeout {
			continue
		}
		if _, busy := m.locks[chatID]; busy {
			slog.Debug("Skipping expiry of busy session", "chat_id", chatID)
			continue
		}
		delete(m.sessions, chatID)
		expired = append(expired, chatID)
	}
	return expired
}
