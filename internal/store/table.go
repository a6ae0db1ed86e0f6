package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hackhub-engine/internal/settings"
)

const settingsRowID = "singleton"

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS config (
  id TEXT PRIMARY KEY,
  team_size INTEGER NOT NULL DEFAULT 5,
  deadline TEXT,
  event_started INTEGER NOT NULL DEFAULT 0,
  event_ended INTEGER NOT NULL DEFAULT 0,
  tracks_enabled INTEGER NOT NULL DEFAULT 0,
  updated_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func ensureSettingsRow(ctx context.Context, q queryer) error {
	def := settings.Default()
	_, err := q.ExecContext(ctx, `
INSERT OR IGNORE INTO config(id, team_size, updated_at)
VALUES(?,?,?);`, settingsRowID, def.TeamSize, time.Now().UTC().Format(time.RFC3339))
	return err
}

func readSettings(ctx context.Context, q queryer) (settings.Settings, error) {
	var (
		s         settings.Settings
		deadline  sql.NullString
		updatedAt string
	)
	err := q.QueryRowContext(ctx, `
SELECT team_size, deadline, event_started, event_ended, tracks_enabled, updated_at
FROM config
WHERE id = ?;`, settingsRowID).Scan(&s.TeamSize, &deadline, &s.EventStarted, &s.EventEnded, &s.TracksEnabled, &updatedAt)
	if err != nil {
		return settings.Settings{}, err
	}
	if deadline.Valid && deadline.String != "" {
		t, err := time.Parse(time.RFC3339, deadline.String)
		if err != nil {
			return settings.Settings{}, fmt.Errorf("stored deadline %q: %w", deadline.String, err)
		}
		s.Deadline = &t
	}
	s.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("stored updated_at %q: %w", updatedAt, err)
	}
	return s, nil
}

// GetSettings returns the singleton settings row, creating it with
// defaults on first access.
func GetSettings(ctx context.Context, db *sql.DB) (settings.Settings, error) {
	if err := ensureSettingsRow(ctx, db); err != nil {
		return settings.Settings{}, fmt.Errorf("ensure settings: %w", err)
	}
	return readSettings(ctx, db)
}

// UpdateSettings reads the current settings, hands them to fn and stores
// what fn returns, all in one transaction. It returns the settings as
// they were before and after the update.
func UpdateSettings(ctx context.Context, db *sql.DB, fn func(cur settings.Settings) (settings.Settings, error)) (prev, next settings.Settings, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return prev, next, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := ensureSettingsRow(ctx, tx); err != nil {
		return prev, next, fmt.Errorf("ensure settings: %w", err)
	}
	prev, err = readSettings(ctx, tx)
	if err != nil {
		return prev, next, err
	}
	next, err = fn(prev)
	if err != nil {
		return prev, next, err
	}
	next.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	var deadline any
	if next.Deadline != nil {
		deadline = next.Deadline.UTC().Format(time.RFC3339)
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE config SET
  team_size = ?,
  deadline = ?,
  event_started = ?,
  event_ended = ?,
  tracks_enabled = ?,
  updated_at = ?
WHERE id = ?;`,
		next.TeamSize, deadline, next.EventStarted, next.EventEnded, next.TracksEnabled,
		next.UpdatedAt.Format(time.RFC3339), settingsRowID,
	); err != nil {
		return prev, next, fmt.Errorf("update settings: %w", err)
	}

	return prev, next, tx.Commit()
}
