package ingest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/uktrade/activity-stream/internal/config"
	"github.com/uktrade/activity-stream/internal/esgateway"
	"github.com/uktrade/activity-stream/internal/feeds"
	"github.com/uktrade/activity-stream/internal/kv"
)

// errFullIngestNotYetComplete is a sentinel so the supervisor's logged
// failure reads meaningfully while the updates loop waits for the first
// full ingest of a freshly configured feed to produce a starting point.
var errFullIngestNotYetComplete = errors.New("ingest: full ingest has not produced a starting point yet")

// updatesIngest polls incrementally from the last recorded cursor into every
// index — building and live — currently owned by the feed, so a full ingest
// in progress observes live updates too.
type updatesIngest struct {
	engine  *Engine
	feed    config.Feed
	adapter feeds.Adapter
	logger  *zap.Logger
}

func (u *updatesIngest) run(ctx context.Context) error {
	feedID := u.feed.UniqueID

	url, err := u.loadCursor(ctx, feedID)
	if err != nil {
		return err
	}
	if url == "" {
		timer := time.NewTimer(updatesWaitForSeed)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		return errFullIngestNotYetComplete
	}

	withoutAlias, withAlias, err := u.engine.gateway.ListIndexes(ctx)
	if err != nil {
		return err
	}
	targets := esgateway.IndexesMatchingFeeds(append(append([]string{}, withoutAlias...), withAlias...), []string{feedID})
	if len(targets) == 0 {
		return errFullIngestNotYetComplete
	}

	mutex := u.engine.mutexFor(feedID)
	terminalHref := url
	pages := 0

	// Walk pages identically to the full loop but with no inter-page sleep
	// — updates are assumed small.
	for url != "" {
		if u.feed.MaxPagesPerCycle > 0 && pages >= u.feed.MaxPagesPerCycle {
			// Persist the last page fetched so the next cycle resumes from
			// that page instead of from the start of this walk.
			if err := u.engine.kvClient.Set(ctx, kv.FeedUpdatesURLKey(feedID), terminalHref, 0); err != nil {
				return err
			}
			return errMaxPagesPerCycleExceeded
		}
		result, err := u.engine.processPage(ctx, feedID, IngestTypeUpdates, u.adapter, mutex, url, targets)
		if err != nil {
			return err
		}
		pages++
		terminalHref = url
		url = result.nextURL
	}

	liveTargets := esgateway.IndexesMatchingFeeds(withAlias, []string{feedID})
	for _, idx := range liveTargets {
		if err := u.engine.gateway.RefreshIndex(ctx, idx); err != nil {
			return err
		}
	}

	if err := u.engine.kvClient.Set(ctx, kv.FeedUpdatesURLKey(feedID), terminalHref, 0); err != nil {
		return err
	}

	timer := time.NewTimer(updatesInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	return nil
}

// loadCursor returns feed_updates_url if present, else feed_updates_seed_url
// unless it is still the init-time pending sentinel, in which case the
// updates loop has nothing to start from yet.
func (u *updatesIngest) loadCursor(ctx context.Context, feedID string) (string, error) {
	if v, ok, err := u.engine.kvClient.Get(ctx, kv.FeedUpdatesURLKey(feedID)); err != nil {
		return "", err
	} else if ok && v != "" {
		return v, nil
	}

	v, ok, err := u.engine.kvClient.Get(ctx, kv.FeedUpdatesSeedURLKey(feedID))
	if err != nil {
		return "", err
	}
	if !ok || v == kv.PendingSentinel {
		return "", nil
	}
	return v, nil
}
