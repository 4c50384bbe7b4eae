package domain

import (
	"time"
)

// State is the step a conversation is waiting on.
type State int

const (
	// StateNew is the zero state of a session that has not been seeded yet.
	StateNew State = iota
	// StateAwaitingLanguage waits for one of the catalog language names.
	StateAwaitingLanguage
	// StateAwaitingPatientID waits for the clinic-issued patient identifier.
	StateAwaitingPatientID
	// StateAwaitingSystolic waits for the systolic pressure in mmHg.
	StateAwaitingSystolic
	// StateAwaitingDiastolic waits for the diastolic pressure in mmHg.
	StateAwaitingDiastolic
	// StateAwaitingPulse waits for the pulse in bpm.
	StateAwaitingPulse
)

var stateNames = [...]string{
	StateNew:               "new",
	StateAwaitingLanguage:  "awaiting_language",
	StateAwaitingPatientID: "awaiting_patient_id",
	StateAwaitingSystolic:  "awaiting_systolic",
	StateAwaitingDiastolic: "awaiting_diastolic",
	StateAwaitingPulse:     "awaiting_pulse",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Session holds one in-progress conversation for a chat.
type Session struct {
	ChatID       int64
	Language     Language
	PatientID    string
	State        State
	Systolic     float64
	Diastolic    float64
	LastActivity time.Time
}

// NewOnboardingSession starts the language/patient-ID flow for an unlinked chat.
func NewOnboardingSession(chatID int64) Session {
	return Session{
		ChatID: chatID,
		State:  StateAwaitingLanguage,
	}
}

// NewReadingSession starts a reading for a chat that is already linked.
func NewReadingSession(chatID int64, lang Language, patientID string) Session {
	return Session{
		ChatID:    chatID,
		Language:  lang,
		PatientID: patientID,
		State:     StateAwaitingSystolic,
	}
}

// IdleFor returns how long the session has been inactive at now.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastActivity)
}
