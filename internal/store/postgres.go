package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

//go:embed schema_postgres.sql
var postgresSchema string

var postgresDialect = dialect{
	name:      "postgres",
	isLinked:  `SELECT 1 FROM patient_bot_links WHERE telegram_user_id = $1`,
	language:  `SELECT language FROM patient_bot_links WHERE telegram_user_id = $1`,
	patientID: `SELECT patient_id FROM patient_bot_links WHERE telegram_user_id = $1`,
	upsertLink: `
		INSERT INTO patient_bot_links (patient_id, telegram_user_id, telegram_username, language)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_user_id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			language = EXCLUDED.language`,
	insertReading: `
		INSERT INTO patient_bp_readings (patient_id, systolic_bp, diastolic_bp, pulse, recorded_at)
		VALUES ($1, $2, $3, $4, $5)`,
	recordedAt: func(t time.Time) any { return t.UTC() },
}

// NewPostgres opens a pooled Postgres-backed repository and applies the schema.
func NewPostgres(ctx context.Context, dsn string) (Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrate(ctx, db, postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return newSQLStore(db, postgresDialect), nil
}
