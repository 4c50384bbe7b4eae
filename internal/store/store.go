// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/carelink/bpbot/internal/domain"
)

// PatientLinkRepository persists the chat -> patient association.
type PatientLinkRepository interface {
	// IsLinked reports whether the chat has a patient link.
	IsLinked(ctx context.Context, chatID int64) (bool, error)

	// Language returns the chat's stored language, or the default language
	// when the chat is not linked. Absence is not an error.
	Language(ctx context.Context, chatID int64) (domain.Language, error)

	// PatientID returns the linked patient ID. ok is false when the chat is
	// not linked.
	PatientID(ctx context.Context, chatID int64) (patientID string, ok bool, err error)

	// UpsertLink creates the link or, when the chat is already linked,
	// replaces its patient ID and language.
	UpsertLink(ctx context.Context, link domain.PatientLink) error
}

// ReadingRepository is the append-only store of blood-pressure readings.
type ReadingRepository interface {
	// InsertReading appends one reading.
	InsertReading(ctx context.Context, reading domain.Reading) error
}

// Repository is the full persistence surface used by the server.
type Repository interface {
	PatientLinkRepository
	ReadingRepository

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
