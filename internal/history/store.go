// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history keeps a local record of past planning sessions so the CLI
// can re-attach to or report on earlier runs. Persistence here is a client
// side convenience; the backend owns the authoritative state.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	scenario TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL DEFAULT ''
);
`

// Session source values.
const (
	SourceLive = "live"
	SourceDemo = "demo"
)

// Record is one remembered planning session.
type Record struct {
	SessionID  string
	Source     string // "live" or "demo"
	Scenario   string // demo scenario name, empty for live sessions
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time // zero until the session reached a terminal state
}

// Store is a sqlite-backed session history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Begin records a freshly started session.
func (s *Store) Begin(sessionID, source, scenario string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO sessions (session_id, source, scenario, status, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, '')`,
		sessionID, source, scenario, "running", time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record session start: %w", err)
	}
	return nil
}

// Finish records a session's terminal status.
func (s *Store) Finish(sessionID, status string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET status = ?, finished_at = ? WHERE session_id = ?`,
		status, time.Now().UTC().Format(time.RFC3339), sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to record session finish: %w", err)
	}
	return nil
}

// Latest returns the most recently started session, if any.
func (s *Store) Latest() (Record, bool, error) {
	rows, err := s.List(1)
	if err != nil || len(rows) == 0 {
		return Record{}, false, err
	}
	return rows[0], true, nil
}

// List returns up to limit sessions, most recent first.
func (s *Store) List(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT session_id, source, scenario, status, started_at, finished_at
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var started, finished string
		if err := rows.Scan(&rec.SessionID, &rec.Source, &rec.Scenario, &rec.Status, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished != "" {
			rec.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
