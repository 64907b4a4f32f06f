package readapi

import (
	"context"
	"time"
)

// searchBackend is the subset of *esgateway.Gateway the façade drives.
type searchBackend interface {
	Search(ctx context.Context, index string, body []byte, scroll string) (int, []byte, error)
	ScrollContinue(ctx context.Context, scrollID, scroll string) (int, []byte, error)
}

// kvStore is the subset of *kv.Client the façade drives.
type kvStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
