package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on every tick until ctx is done.
// Task errors are logged and never stop the loop. Runs never overlap.
func Every(ctx context.Context, interval time.Duration, name string, logger *zerolog.Logger, task Task) {
	run := func() {
		if err := task(ctx); err != nil {
			logger.Error().Err(err).Str("task", name).Msg("scheduled task failed")
		}
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
