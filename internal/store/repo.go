package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carelink/bpbot/internal/domain"
	"github.com/carelink/bpbot/internal/i18n"
	"github.com/carelink/bpbot/internal/shared"
)

// dialect holds the driver-specific SQL for sqlStore.
type dialect struct {
	name          string
	isLinked      string
	language      string
	patientID     string
	upsertLink    string
	insertReading string
	// recordedAt converts the reading timestamp to the column's driver value.
	recordedAt func(time.Time) any
}

// sqlStore implements Repository on top of database/sql.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	retry   shared.RetryPolicy
	now     func() time.Time
}

func newSQLStore(db *sql.DB, d dialect) *sqlStore {
	return &sqlStore{
		db:      db,
		dialect: d,
		retry:   shared.DefaultRetryPolicy,
		now:     time.Now,
	}
}

// Ping verifies database connectivity.
func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close %s database: %w", s.dialect.name, err)
	}
	return nil
}

// IsLinked reports whether the chat has a patient link.
func (s *sqlStore) IsLinked(ctx context.Context, chatID int64) (bool, error) {
	var one int
	err := shared.WithRetry(ctx, s.retry, "is_linked", func() error {
		return s.db.QueryRowContext(ctx, s.dialect.isLinked, chatID).Scan(&one)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, persistErr("is_linked", err)
	}
	return true, nil
}

// Language returns the chat's language or i18n.Default when not linked.
func (s *sqlStore) Language(ctx context.Context, chatID int64) (domain.Language, error) {
	var lang string
	err := shared.WithRetry(ctx, s.retry, "language", func() error {
		return s.db.QueryRowContext(ctx, s.dialect.language, chatID).Scan(&lang)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return i18n.Default, nil
	}
	if err != nil {
		return i18n.Default, persistErr("language", err)
	}
	return domain.Language(lang), nil
}

// PatientID returns the chat's linked patient ID.
func (s *sqlStore) PatientID(ctx context.Context, chatID int64) (string, bool, error) {
	var patientID string
	err := shared.WithRetry(ctx, s.retry, "patient_id", func() error {
		return s.db.QueryRowContext(ctx, s.dialect.patientID, chatID).Scan(&patientID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, persistErr("patient_id", err)
	}
	return patientID, true, nil
}

// UpsertLink creates or replaces the chat's patient link.
func (s *sqlStore) UpsertLink(ctx context.Context, link domain.PatientLink) error {
	patientID := strings.TrimSpace(link.PatientID)
	if patientID == "" {
		return persistErr("upsert_link", errors.New("empty patient id"))
	}

	err := shared.WithRetry(ctx, s.retry, "upsert_link", func() error {
		_, err := s.db.ExecContext(ctx, s.dialect.upsertLink,
			patientID, link.ChatID, link.Username, string(link.Language),
		)
		return err
	})
	return persistErr("upsert_link", err)
}

// InsertReading appends one reading.
func (s *sqlStore) InsertReading(ctx context.Context, r domain.Reading) error {
	recordedAt := r.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = s.now()
	}

	err := shared.WithRetry(ctx, s.retry, "insert_reading", func() error {
		_, err := s.db.ExecContext(ctx, s.dialect.insertReading,
			r.PatientID, r.Systolic, r.Diastolic, r.Pulse, s.dialect.recordedAt(recordedAt),
		)
		return err
	})
	return persistErr("insert_reading", err)
}
