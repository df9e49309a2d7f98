package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the statements that create every table. Each is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id                 TEXT PRIMARY KEY,
		owner_user_id      TEXT NOT NULL DEFAULT '',
		status             TEXT NOT NULL,
		started_at         INTEGER NOT NULL,
		updated_at         INTEGER NOT NULL,
		total_administered INTEGER NOT NULL DEFAULT 0,
		record             TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_status_started ON sessions (status, started_at)`,
	`CREATE TABLE IF NOT EXISTS response_events (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence       INTEGER NOT NULL UNIQUE,
		timestamp      INTEGER NOT NULL,
		session_id     TEXT NOT NULL,
		scenario_id    TEXT NOT NULL,
		dimension      TEXT NOT NULL,
		option_id      TEXT NOT NULL,
		observed_theta REAL NOT NULL,
		information    REAL NOT NULL,
		theta          REAL NOT NULL,
		standard_error REAL NOT NULL,
		item_count     INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS response_events_session ON response_events (session_id, sequence)`,
	`CREATE TABLE IF NOT EXISTS lifecycle_events (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence        INTEGER NOT NULL UNIQUE,
		timestamp       INTEGER NOT NULL,
		session_id      TEXT NOT NULL,
		owner_user_id   TEXT NOT NULL DEFAULT '',
		event           TEXT NOT NULL,
		administered    INTEGER NOT NULL DEFAULT 0,
		readiness_theta REAL NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS lifecycle_events_session ON lifecycle_events (session_id, sequence)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL UNIQUE,
		timestamp     INTEGER NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL DEFAULT '',
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
