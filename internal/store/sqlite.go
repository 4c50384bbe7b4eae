package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

var sqliteDialect = dialect{
	name:      "sqlite",
	isLinked:  `SELECT 1 FROM patient_bot_links WHERE telegram_user_id = ?`,
	language:  `SELECT language FROM patient_bot_links WHERE telegram_user_id = ?`,
	patientID: `SELECT patient_id FROM patient_bot_links WHERE telegram_user_id = ?`,
	upsertLink: `
		INSERT INTO patient_bot_links (patient_id, telegram_user_id, telegram_username, language)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(telegram_user_id) DO UPDATE SET
			patient_id = excluded.patient_id,
			language = excluded.language`,
	insertReading: `
		INSERT INTO patient_bp_readings (patient_id, systolic_bp, diastolic_bp, pulse, recorded_at)
		VALUES (?, ?, ?, ?, ?)`,
	recordedAt: func(t time.Time) any { return t.Unix() },
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(ctx context.Context, dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrate(ctx, db, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return newSQLStore(db, sqliteDialect), nil
}
