package ingest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/uktrade/activity-stream/internal/feeds"
)

// FeedError marks a non-2xx response from a feed, same treatment as a
// BackendError: it escapes to the enclosing supervisor.
type FeedError struct {
	Status int
	URL    string
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("ingest: feed %s returned status %d", e.URL, e.Status)
}

// fetchPage pulls one page from url, holding the feed's mutex only for the
// duration of the HTTP round trip.
func fetchPage(ctx context.Context, httpClient httpRequester, adapter feeds.Adapter, mutex *feedMutex, url string) ([]byte, error) {
	header, err := adapter.AuthHeader(url)
	if err != nil {
		return nil, fmt.Errorf("ingest: build auth header: %w", err)
	}

	mutex.Lock()
	resp, err := httpClient.Request(ctx, http.MethodGet, url, nil, map[string]string{"Authorization": header}, nil)
	mutex.Unlock()
	if err != nil {
		return nil, err
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return nil, &FeedError{Status: resp.Status, URL: url}
	}
	return resp.Body, nil
}

// pageResult carries one page pipeline's output: the next URL to follow (or
// empty when the feed has terminated pagination) and the number of items
// pushed.
type pageResult struct {
	nextURL     string
	itemsPushed int
}

// processPage runs the pull -> parse -> push pipeline for one page, against
// every index in indexNames, recording pull/push/total timers and the
// items-pushed counter under (feedID, ingestType).
func (e *Engine) processPage(ctx context.Context, feedID, ingestType string, adapter feeds.Adapter, mutex *feedMutex, url string, indexNames []string) (pageResult, error) {
	totalStart := time.Now()

	pullStart := time.Now()
	body, err := fetchPage(ctx, e.http, adapter, mutex, url)
	e.metrics.ObservePull(feedID, ingestType, time.Since(pullStart).Seconds())
	if err != nil {
		return pageResult{}, err
	}

	items, nextURL, err := adapter.Parse(body)
	if err != nil {
		return pageResult{}, err
	}

	records, err := adapter.ConvertToBulk(items, indexNames)
	if err != nil {
		return pageResult{}, err
	}

	pushStart := time.Now()
	err = e.gateway.Bulk(ctx, records)
	e.metrics.ObservePush(feedID, ingestType, time.Since(pushStart).Seconds())
	if err != nil {
		return pageResult{}, err
	}

	e.metrics.IncItemsPushed(feedID, len(items))
	e.metrics.ObserveTotal(feedID, ingestType, time.Since(totalStart).Seconds())

	return pageResult{nextURL: nextURL, itemsPushed: len(items)}, nil
}
