// Package deadline announces the submission deadline passing.
package deadline

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hackhub-engine/internal/events"
	"hackhub-engine/internal/settings"
	"hackhub-engine/internal/store"
)

const passedMessage = "The submission deadline has passed"

// Watcher publishes deadline-passed once for every deadline that falls
// between two consecutive checks. A deadline already in the past when
// the watcher starts is not announced.
type Watcher struct {
	Load      func(ctx context.Context) (settings.Settings, error)
	Publisher events.Publisher
	Logger    *zerolog.Logger

	mu        sync.Mutex
	lastCheck time.Time
	now       func() time.Time
}

func NewWatcher(db *sql.DB, pub events.Publisher, logger *zerolog.Logger) *Watcher {
	return &Watcher{
		Load: func(ctx context.Context) (settings.Settings, error) {
			return store.GetSettings(ctx, db)
		},
		Publisher: pub,
		Logger:    logger,
		lastCheck: time.Now(),
		now:       time.Now,
	}
}

// Check is a scheduler.Task.
func (w *Watcher) Check(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, err := w.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	now := w.now()
	prev := w.lastCheck
	w.lastCheck = now

	if s.Deadline == nil {
		return nil
	}
	dl := *s.Deadline
	if !dl.After(prev) || dl.After(now) {
		return nil
	}

	env, err := events.NewEnvelope(events.TypeDeadlinePassed, map[string]any{
		"deadline": dl,
		"message":  passedMessage,
	})
	if err != nil {
		return err
	}
	w.Publisher.Publish(env)
	w.Logger.Info().Time("deadline", dl).Msg("deadline passed")
	return nil
}
