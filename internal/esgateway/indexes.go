package esgateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9/esapi"
)

// IndexPrefix is the common prefix every index this service manages starts
// with; list_indexes only considers names with this prefix, per spec.
const IndexPrefix = "activities_"

// FeedIDMarker returns the substring that uniquely identifies which feed
// owns an index, used both to build new names and to match existing ones.
func FeedIDMarker(feedID string) string {
	return fmt.Sprintf("activities__feed_id_%s__", feedID)
}

// NewIndexName generates a fresh index name for feedID following the
// required layout: activities__feed_id_<id>__date_<date>__timestamp_<ts>__batch_id_<hex>__
func NewIndexName(feedID string, now time.Time) (string, error) {
	batch := make([]byte, 5)
	if _, err := rand.Read(batch); err != nil {
		return "", fmt.Errorf("esgateway: generate batch id: %w", err)
	}
	date := now.UTC().Format("2006-01-02")
	ts := now.UTC().Unix()
	return fmt.Sprintf(
		"activities__feed_id_%s__date_%s__timestamp_%d__batch_id_%s__",
		feedID, date, ts, hex.EncodeToString(batch),
	), nil
}

// ListIndexes returns the set of activities_-prefixed indexes split by
// whether they currently belong to the alias.
func (g *Gateway) ListIndexes(ctx context.Context) (withoutAlias, withAlias []string, err error) {
	resp, err := esapi.IndicesGetAliasRequest{}.Do(ctx, g.es)
	if err != nil {
		return nil, nil, fmt.Errorf("esgateway: list indexes: %w", err)
	}
	body, err := checkResponse(resp, false)
	if err != nil {
		return nil, nil, err
	}

	var raw map[string]struct {
		Aliases map[string]json.RawMessage `json:"aliases"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, fmt.Errorf("esgateway: decode _aliases: %w", err)
	}

	for index, details := range raw {
		if !strings.HasPrefix(index, IndexPrefix) {
			continue
		}
		if len(details.Aliases) > 0 {
			withAlias = append(withAlias, index)
		} else {
			withoutAlias = append(withoutAlias, index)
		}
	}
	return withoutAlias, withAlias, nil
}

// IndexesMatchingFeed filters names down to those owned by feedID.
func IndexesMatchingFeed(names []string, feedID string) []string {
	marker := FeedIDMarker(feedID)
	var out []string
	for _, n := range names {
		if strings.Contains(n, marker) {
			out = append(out, n)
		}
	}
	return out
}

// IndexesMatchingFeeds filters names down to those owned by any of feedIDs.
func IndexesMatchingFeeds(names []string, feedIDs []string) []string {
	var out []string
	for _, n := range names {
		for _, id := range feedIDs {
			if strings.Contains(n, FeedIDMarker(id)) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// IndexesMatchingNoFeeds returns names that do not belong to any configured
// feed, used for startup garbage collection of decommissioned feeds.
func IndexesMatchingNoFeeds(names []string, feedIDs []string) []string {
	var out []string
	for _, n := range names {
		owned := false
		for _, id := range feedIDs {
			if strings.Contains(n, FeedIDMarker(id)) {
				owned = true
				break
			}
		}
		if !owned {
			out = append(out, n)
		}
	}
	return out
}

// CreateIndex creates name with the ingest-time settings: 4 shards, 1
// replica, refresh disabled until explicit refresh calls are made.
func (g *Gateway) CreateIndex(ctx context.Context, name string) error {
	body := `{"settings":{"number_of_shards":4,"number_of_replicas":1,"refresh_interval":"-1"}}`
	resp, err := esapi.IndicesCreateRequest{
		Index: name,
		Body:  strings.NewReader(body),
	}.Do(ctx, g.es)
	if err != nil {
		return fmt.Errorf("esgateway: create index %s: %w", name, err)
	}
	_, err = checkResponse(resp, false)
	return err
}

// PutMapping sets the published_date/type/object.type field mappings on
// name.
func (g *Gateway) PutMapping(ctx context.Context, name string) error {
	body := `{"properties":{"published_date":{"type":"date"},"type":{"type":"keyword"},"object":{"properties":{"type":{"type":"keyword"}}}}}`
	resp, err := esapi.IndicesPutMappingRequest{
		Index: []string{name},
		Body:  strings.NewReader(body),
	}.Do(ctx, g.es)
	if err != nil {
		return fmt.Errorf("esgateway: put mapping %s: %w", name, err)
	}
	_, err = checkResponse(resp, false)
	return err
}

// RefreshIndex makes recently bulk-indexed documents visible to search.
func (g *Gateway) RefreshIndex(ctx context.Context, name string) error {
	resp, err := esapi.IndicesRefreshRequest{Index: []string{name}}.Do(ctx, g.es)
	if err != nil {
		return fmt.Errorf("esgateway: refresh %s: %w", name, err)
	}
	_, err = checkResponse(resp, false)
	return err
}

// DeleteIndex removes name. allow404 tolerates the index already being gone
// (used during scrub/GC where a previous attempt may have partially
// succeeded).
func (g *Gateway) DeleteIndex(ctx context.Context, name string, allow404 bool) error {
	resp, err := esapi.IndicesDeleteRequest{Index: []string{name}}.Do(ctx, g.es)
	if err != nil {
		return fmt.Errorf("esgateway: delete index %s: %w", name, err)
	}
	_, err = checkResponse(resp, allow404)
	return err
}
