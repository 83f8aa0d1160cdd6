package scheduler

import (
	"context"
	"log/slog"
	"time"
)

type Task func(ctx context.Context) error

// Every runs task once immediately and then on each tick until ctx is done.
// Runs never overlap; a tick that arrives during a run is skipped.
func Every(ctx context.Context, interval time.Duration, name string, logger *slog.Logger, task Task) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("task", name)

	run := func() {
		start := time.Now()
		if err := task(ctx); err != nil {
			logger.Error("scheduled task failed", "err", err)
			return
		}
		logger.Debug("scheduled task done", "dur_ms", time.Since(start).Milliseconds())
	}

	run()

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
