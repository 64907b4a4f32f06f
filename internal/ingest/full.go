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

// errMaxPagesPerCycleExceeded aborts a single page_loop once it has walked
// feed.MaxPagesPerCycle pages, the safety valve against a feed whose
// next_url never goes empty. The Supervisor treats this like any other
// failure: back off, then restart the whole run from scratch.
var errMaxPagesPerCycleExceeded = errors.New("ingest: feed exceeded max pages per cycle")

// fullIngest drives one feed's full-ingest state machine:
// init -> scrub -> create -> page_loop -> refresh -> cutover -> record_cursor -> sleep.
// A clean completion is treated by the Supervisor as unexpected and restarts
// immediately; polling_seed_interval gates the minimum spacing between the
// start of consecutive runs so a fast backend does not spin in a hot loop.
type fullIngest struct {
	engine  *Engine
	feed    config.Feed
	adapter feeds.Adapter
	logger  *zap.Logger
}

func (f *fullIngest) run(ctx context.Context) error {
	feedID := f.feed.UniqueID

	// init: block the updates loop until this run produces a real seed.
	if err := f.engine.kvClient.Set(ctx, kv.FeedUpdatesSeedURLKey(feedID), kv.PendingSentinel, 0); err != nil {
		return err
	}

	// scrub: delete every building index left behind by a prior run that
	// never reached cutover.
	withoutAlias, _, err := f.engine.gateway.ListIndexes(ctx)
	if err != nil {
		return err
	}
	for _, idx := range esgateway.IndexesMatchingFeed(withoutAlias, feedID) {
		f.logger.Info("scrub: deleting stale building index", zap.String("index", idx))
		if err := f.engine.gateway.DeleteIndex(ctx, idx, true); err != nil {
			return err
		}
	}

	// create: fresh index, ingest-time settings, mapping.
	newIndex, err := esgateway.NewIndexName(feedID, time.Now())
	if err != nil {
		return err
	}
	if err := f.engine.gateway.CreateIndex(ctx, newIndex); err != nil {
		return err
	}
	if err := f.engine.gateway.PutMapping(ctx, newIndex); err != nil {
		return err
	}

	// page_loop
	mutex := f.engine.mutexFor(feedID)
	url := f.feed.Seed
	lastHref := url
	pages := 0

	for url != "" {
		if f.feed.MaxPagesPerCycle > 0 && pages >= f.feed.MaxPagesPerCycle {
			return errMaxPagesPerCycleExceeded
		}
		result, err := f.engine.processPage(ctx, feedID, IngestTypeFull, f.adapter, mutex, url, []string{newIndex})
		if err != nil {
			return err
		}
		pages++
		lastHref = url
		url = result.nextURL

		if url != "" {
			timer := time.NewTimer(f.feed.PollingPageInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	// refresh: make newly written docs visible before cutover.
	if err := f.engine.gateway.RefreshIndex(ctx, newIndex); err != nil {
		return err
	}

	// cutover: atomic alias flip — remove any existing member of the alias
	// owned by this feed, add the freshly built index.
	removePattern := esgateway.FeedIDMarker(feedID) + "*"
	if err := f.engine.gateway.AliasFlip(ctx, newIndex, removePattern); err != nil {
		return err
	}

	// record_cursor
	if err := f.engine.kvClient.Set(ctx, kv.FeedUpdatesSeedURLKey(feedID), lastHref, 0); err != nil {
		return err
	}

	// sleep: minimum spacing before the supervisor restarts this run.
	timer := time.NewTimer(f.feed.PollingSeedInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	return nil
}
