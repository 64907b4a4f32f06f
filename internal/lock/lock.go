// Package lock implements the cross-process single-leader lease: only the
// process holding the lease runs the Ingestion Engine and the Metrics
// Sampler. The acquire-then-renew shape is adapted from the teacher's
// Postgres work-lease pattern (acquire via a conditional write, renew on a
// timer, never explicitly release), retargeted at a Redis SET NX EX key.
package lock

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/uktrade/activity-stream/internal/kv"
	"github.com/uktrade/activity-stream/internal/supervisor"
)

// Lease is held while this process believes it is the leader. Nothing in it
// changes if the key is later lost; leader-only work stops when ctx is
// cancelled (the renewer's supervised loop exits once the process is
// shutting down).
type Lease struct {
	client   *kv.Client
	key      string
	value    string
	ttl      time.Duration
	renewal  time.Duration
	acquired chan struct{}
}

// AcquireAndKeep blocks (respecting ctx) until the lease key is acquired via
// SET NX EX, then starts a background renewer that refreshes the TTL every
// renewal interval. It returns once acquisition succeeds; renewal continues
// under a supervised loop until ctx is cancelled.
func AcquireAndKeep(ctx context.Context, logger *zap.Logger, client *kv.Client, key, holderID string, ttl, renewal time.Duration, schedule []time.Duration) (*Lease, error) {
	l := &Lease{client: client, key: key, value: holderID, ttl: ttl, renewal: renewal, acquired: make(chan struct{})}

	attempt := 0
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		ok, err := client.SetNX(ctx, key, holderID, ttl)
		if err != nil {
			logger.Warn("lock: acquisition attempt failed", zap.Error(err))
		} else if ok {
			break
		}

		idx := attempt
		if len(schedule) == 0 {
			schedule = supervisor.DefaultSchedule
		}
		if idx > len(schedule)-1 {
			idx = len(schedule) - 1
		}
		wait := schedule[idx]
		attempt++

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	close(l.acquired)
	go l.renewLoop(ctx, logger)
	return l, nil
}

func (l *Lease) renewLoop(ctx context.Context, logger *zap.Logger) {
	supervisor.RepeatUntilCancelled(ctx, logger, nil, []time.Duration{l.renewal}, map[string]string{"component": "lock_renewer"}, func(ctx context.Context) error {
		timer := time.NewTimer(l.renewal)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		return l.client.Expire(ctx, l.key, l.ttl)
	})
}
