package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/catmanduz/link-reminder/internal/logger"
	"github.com/catmanduz/link-reminder/internal/reminder"
)

const (
	// DefaultRehydrateTimeout bounds the startup rehydration retries
	DefaultRehydrateTimeout = 30 * time.Second

	rehydrateMaxWait = 5 * time.Second
)

// Rehydrater restores reminder timers from persisted links.
type Rehydrater interface {
	Rehydrate(ctx context.Context) (reminder.RehydrateReport, error)
}

// StartupRehydrator runs reminder rehydration before timers start firing.
// A pass is retried until it completes cleanly: firing timers on top of an
// unfinished pass would present reminders that were missed while down.
type StartupRehydrator struct {
	rehydrater Rehydrater
	logger     logger.Logger
	timeout    time.Duration
	retry      time.Duration // first wait between passes, doubled up to rehydrateMaxWait
	last       reminder.RehydrateReport
}

// NewStartupRehydrator creates a new startup rehydrator
func NewStartupRehydrator(r Rehydrater, log logger.Logger, timeout time.Duration) *StartupRehydrator {
	if timeout <= 0 {
		timeout = DefaultRehydrateTimeout
	}
	return &StartupRehydrator{
		rehydrater: r,
		logger:     log,
		timeout:    timeout,
		retry:      500 * time.Millisecond,
	}
}

// Run rehydrates reminders, retrying failed passes until one succeeds or the
// timeout elapses. Each pass is idempotent.
func (sr *StartupRehydrator) Run(ctx context.Context) (reminder.RehydrateReport, error) {
	ctx, cancel := context.WithTimeout(ctx, sr.timeout)
	defer cancel()

	sr.logger.Info("rehydrating reminders from store")

	wait := sr.retry
	for attempt := 1; ; attempt++ {
		report, err := sr.rehydrater.Rehydrate(ctx)
		sr.last = report
		if err == nil {
			if attempt > 1 {
				sr.logger.Warn("reminders rehydrated after retry", logger.Int("attempts", attempt))
			}
			return report, nil
		}

		sr.logger.Warn("reminder rehydration failed, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", wait),
			logger.Error(err))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return report, fmt.Errorf("reminder rehydration failed after %d attempts: %w", attempt, err)
		case <-timer.C:
		}

		wait *= 2
		if wait > rehydrateMaxWait {
			wait = rehydrateMaxWait
		}
	}
}

// Last returns the report of the last pass
func (sr *StartupRehydrator) Last() reminder.RehydrateReport {
	return sr.last
}
