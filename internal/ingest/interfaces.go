package ingest

import (
	"context"
	"time"

	"github.com/uktrade/activity-stream/internal/feeds"
	"github.com/uktrade/activity-stream/internal/httpclient"
)

// gatewayClient is the subset of *esgateway.Gateway the ingestion engine
// drives. Declaring it here, rather than depending on the concrete type
// directly, lets scenario tests substitute an in-memory fake for the search
// backend.
type gatewayClient interface {
	ListIndexes(ctx context.Context) (withoutAlias, withAlias []string, err error)
	CreateIndex(ctx context.Context, name string) error
	PutMapping(ctx context.Context, name string) error
	RefreshIndex(ctx context.Context, name string) error
	DeleteIndex(ctx context.Context, name string, allow404 bool) error
	AliasFlip(ctx context.Context, addIndex, removePattern string) error
	Bulk(ctx context.Context, records []feeds.BulkRecord) error
}

// kvStore is the subset of *kv.Client the ingestion engine drives.
type kvStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// httpRequester is the subset of *httpclient.Client the ingestion engine
// drives to fetch feed pages.
type httpRequester interface {
	Request(ctx context.Context, method, rawURL string, query, headers map[string]string, body []byte) (*httpclient.Response, error)
}
