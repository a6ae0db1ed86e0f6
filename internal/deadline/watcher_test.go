package deadline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackhub-engine/internal/events"
	"hackhub-engine/internal/settings"
)

type spyPublisher struct {
	mu   sync.Mutex
	envs []events.Envelope
}

func (s *spyPublisher) Publish(env events.Envelope) {
	s.mu.Lock()
	s.envs = append(s.envs, env)
	s.mu.Unlock()
}

func newTestWatcher(start time.Time, dl *time.Time) (*Watcher, *spyPublisher, *time.Time) {
	logger := zerolog.Nop()
	spy := &spyPublisher{}
	now := start
	w := &Watcher{
		Load: func(context.Context) (settings.Settings, error) {
			return settings.Settings{TeamSize: 5, Deadline: dl}, nil
		},
		Publisher: spy,
		Logger:    &logger,
		lastCheck: start,
	}
	w.now = func() time.Time { return now }
	return w, spy, &now
}

func TestWatcher_AnnouncesOnce(t *testing.T) {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	dl := start.Add(90 * time.Second)
	w, spy, now := newTestWatcher(start, &dl)

	*now = start.Add(60 * time.Second)
	require.NoError(t, w.Check(context.Background()))
	assert.Empty(t, spy.envs)

	*now = start.Add(120 * time.Second)
	require.NoError(t, w.Check(context.Background()))
	require.Len(t, spy.envs, 1)
	assert.Equal(t, events.TypeDeadlinePassed, spy.envs[0].Type)

	var data map[string]any
	require.NoError(t, json.Unmarshal(spy.envs[0].Data, &data))
	assert.Equal(t, passedMessage, data["message"])

	*now = start.Add(180 * time.Second)
	require.NoError(t, w.Check(context.Background()))
	assert.Len(t, spy.envs, 1)
}

func TestWatcher_IgnoresDeadlineBeforeStart(t *testing.T) {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	dl := start.Add(-time.Hour)
	w, spy, now := newTestWatcher(start, &dl)

	*now = start.Add(time.Minute)
	require.NoError(t, w.Check(context.Background()))
	assert.Empty(t, spy.envs)
}

func TestWatcher_NoDeadline(t *testing.T) {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	w, spy, now := newTestWatcher(start, nil)
	*now = start.Add(time.Minute)
	require.NoError(t, w.Check(context.Background()))
	assert.Empty(t, spy.envs)
}

func TestWatcher_LoadError(t *testing.T) {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	w, _, _ := newTestWatcher(start, nil)
	w.Load = func(context.Context) (settings.Settings, error) { return settings.Settings{}, errors.New("db gone") }
	assert.Error(t, w.Check(context.Background()))
}
