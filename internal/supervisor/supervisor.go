// Package supervisor runs a task forever, applying exponential backoff on
// failure and resetting on success, and stops promptly on cancellation. It
// is the only retry authority in this service: no other package recovers
// from a non-sentinel error locally.
package supervisor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Reporter captures a non-cancellation failure for offline triage (Sentry in
// production, a no-op in tests).
type Reporter interface {
	Report(err error, tags map[string]string)
}

// DefaultSchedule is the backoff schedule used when a caller doesn't supply
// its own: seconds double from 1 up to 64, then repeat at 64.
var DefaultSchedule = []time.Duration{
	1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
	16 * time.Second, 32 * time.Second, 64 * time.Second,
}

// RepeatUntilCancelled runs task in a loop until ctx is cancelled.
//
//   - On a non-cancellation error: logs and reports it, then sleeps
//     schedule[min(consecutiveFailures, len(schedule)-1)] before retrying,
//     incrementing consecutiveFailures.
//   - On a clean (nil-error) return: logs it as unexpected, resets
//     consecutiveFailures to zero, and restarts immediately.
//   - On ctx cancellation, either while task is running or while sleeping,
//     returns promptly without any further retry.
func RepeatUntilCancelled(ctx context.Context, logger *zap.Logger, reporter Reporter, schedule []time.Duration, tags map[string]string, task func(context.Context) error) {
	if len(schedule) == 0 {
		schedule = DefaultSchedule
	}

	consecutiveFailures := 0
	for {
		if ctx.Err() != nil {
			return
		}

		err := task(ctx)

		if err == nil {
			logger.Warn("supervised task returned without error; restarting", zap.Any("tags", tags))
			consecutiveFailures = 0
			continue
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		logger.Error("supervised task failed", zap.Error(err), zap.Any("tags", tags), zap.Int("consecutive_failures", consecutiveFailures))
		if reporter != nil {
			reporter.Report(err, tags)
		}

		idx := consecutiveFailures
		if idx > len(schedule)-1 {
			idx = len(schedule) - 1
		}
		wait := schedule[idx]
		consecutiveFailures++

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
