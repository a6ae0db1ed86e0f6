package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackhub-engine/internal/settings"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "hackhub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db.Pool))
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db.Pool))

	var v int
	require.NoError(t, db.Pool.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, 1, v)
}

func TestGetSettings_Defaults(t *testing.T) {
	db := openTestDB(t)
	s, err := GetSettings(context.Background(), db.Pool)
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultTeamSize, s.TeamSize)
	assert.Nil(t, s.Deadline)
	assert.False(t, s.EventStarted)
}

func TestUpdateSettings(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	dl := time.Date(2026, 11, 1, 16, 0, 0, 0, time.UTC)

	prev, next, err := UpdateSettings(ctx, db.Pool, func(cur settings.Settings) (settings.Settings, error) {
		cur.TeamSize = 4
		cur.Deadline = &dl
		cur.EventStarted = true
		return cur, nil
	})
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultTeamSize, prev.TeamSize)
	assert.Equal(t, 4, next.TeamSize)

	got, err := GetSettings(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, 4, got.TeamSize)
	require.NotNil(t, got.Deadline)
	assert.True(t, dl.Equal(*got.Deadline))
	assert.True(t, got.EventStarted)
	assert.False(t, got.UpdatedAt.IsZero())

	_, _, err = UpdateSettings(ctx, db.Pool, func(cur settings.Settings) (settings.Settings, error) {
		cur.Deadline = nil
		return cur, nil
	})
	require.NoError(t, err)
	got, err = GetSettings(ctx, db.Pool)
	require.NoError(t, err)
	assert.Nil(t, got.Deadline)
}

func TestUpdateSettings_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	boom := errors.New("boom")

	_, _, err := UpdateSettings(ctx, db.Pool, func(cur settings.Settings) (settings.Settings, error) {
		cur.TeamSize = 9
		return cur, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := GetSettings(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultTeamSize, got.TeamSize)
}

func TestCheckpoint(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, Checkpoint(context.Background(), db.Pool))
}

func TestGetSettings_CorruptTimestamps(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := GetSettings(ctx, db.Pool)
	require.NoError(t, err)

	_, err = db.Pool.ExecContext(ctx, `UPDATE config SET updated_at = 'yesterday' WHERE id = ?;`, settingsRowID)
	require.NoError(t, err)
	_, err = GetSettings(ctx, db.Pool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "updated_at")

	_, err = db.Pool.ExecContext(ctx, `UPDATE config SET updated_at = ?, deadline = 'soon' WHERE id = ?;`,
		time.Now().UTC().Format(time.RFC3339), settingsRowID)
	require.NoError(t, err)
	_, err = GetSettings(ctx, db.Pool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadline")
}
