// Package feeds implements the Feed Adapter: per-feed-type parsing of a
// fetched page into bulk-index records, next-page extraction, and per-feed
// Hawk authentication. It is grounded in the teacher's stateless Worker
// pattern (internal/ingester/worker.go): one concrete type per kind of
// upstream data, registered into a lookup table at startup rather than
// dispatched via a type switch scattered through the engine.
package feeds

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/uktrade/activity-stream/internal/config"
)

// BulkRecord pairs a bulk action/metadata document with its source body, one
// per target index a single activity fans out to.
type BulkRecord struct {
	Action json.RawMessage
	Source json.RawMessage
}

// Adapter is the capability set every feed type variant must implement.
type Adapter interface {
	// AuthHeader produces the Hawk Authorization header value for a GET to
	// url using this feed's credentials.
	AuthHeader(url string) (string, error)

	// Parse decodes a raw page response body into a list of activity
	// documents plus the next page URL (empty string if there is none).
	Parse(body []byte) (items []json.RawMessage, nextURL string, err error)

	// ConvertToBulk fans each parsed item out across every target index,
	// producing one BulkRecord pair per (item, index) combination.
	ConvertToBulk(items []json.RawMessage, indexNames []string) ([]BulkRecord, error)
}

// Registry maps a configured feed type to its Adapter constructor.
type Registry struct {
	constructors map[config.FeedType]func(feed config.Feed) (Adapter, error)
}

// NewRegistry builds the startup dispatch table for the two known feed
// types. Extending to a new type means registering another constructor
// here, not adding a branch deep in the ingestion engine.
func NewRegistry() *Registry {
	return &Registry{
		constructors: map[config.FeedType]func(config.Feed) (Adapter, error){
			config.FeedTypeActivityStream: func(f config.Feed) (Adapter, error) {
				return NewActivityStream(f), nil
			},
			config.FeedTypeZendesk: func(f config.Feed) (Adapter, error) {
				return NewZendesk(f), nil
			},
		},
	}
}

// For builds the Adapter for feed, returning a ConfigError-shaped error for
// an unrecognised type (this is also validated at config-parse time, but the
// registry enforces it again so a bad wiring fails loudly rather than
// silently dropping a feed).
func (r *Registry) For(feed config.Feed) (Adapter, error) {
	ctor, ok := r.constructors[feed.Type]
	if !ok {
		return nil, fmt.Errorf("feeds: no adapter registered for type %q", feed.Type)
	}
	return ctor(feed)
}

// sortedKeysJSON marshals v with object keys in sorted order, matching the
// search backend's requirement that bulk action/source documents serialise
// deterministically (for diffing and idempotent replay).
func sortedKeysJSON(v interface{}) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return marshalSorted(generic)
}

func marshalSorted(v interface{}) (json.RawMessage, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, _ := json.Marshal(k)
			buf = append(buf, kb...)
			buf = append(buf, ':')
			vb, err := marshalSorted(val[k])
			if err != nil {
				return nil, err
			}
			buf = append(buf, vb...)
		}
		buf = append(buf, '}')
		return buf, nil
	case []interface{}:
		buf := []byte{'['}
		for i, item := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			ib, err := marshalSorted(item)
			if err != nil {
				return nil, err
			}
			buf = append(buf, ib...)
		}
		buf = append(buf, ']')
		return buf, nil
	default:
		return json.Marshal(val)
	}
}

// bulkActionFor builds the `{"index": {"_id": ..., "_index": ...}}` action
// document for one target index.
func bulkActionFor(id, index string) (json.RawMessage, error) {
	return sortedKeysJSON(map[string]interface{}{
		"index": map[string]interface{}{
			"_id":    id,
			"_index": index,
		},
	})
}
