package esgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9/esapi"
)

// SearchableTotal is the document count visible through the alias.
func (g *Gateway) SearchableTotal(ctx context.Context) (int64, error) {
	return g.Count(ctx, Alias)
}

// NonSearchableTotal counts documents in building/orphan indexes: every
// activities_-prefixed index excluding the alias itself.
func (g *Gateway) NonSearchableTotal(ctx context.Context) (int64, error) {
	return g.Count(ctx, "activities_*,-"+Alias)
}

// FeedActivitiesTotal returns the searchable count for one feed, computed as
// max(total - nonsearchable, 0) so a transient backend inconsistency never
// reports a negative count.
func (g *Gateway) FeedActivitiesTotal(ctx context.Context, feedID string) (searchable int64, nonSearchable int64, err error) {
	pattern := FeedIDMarker(feedID) + "*"
	total, err := g.Count(ctx, pattern)
	if err != nil {
		return 0, 0, err
	}
	nonSearchable, err = g.Count(ctx, pattern+",-"+Alias)
	if err != nil {
		return 0, 0, err
	}
	searchable = total - nonSearchable
	if searchable < 0 {
		searchable = 0
	}
	return searchable, nonSearchable, nil
}

const verifierActivityType = "dit:activityStreamVerificationFeed:Verifier"

// MinVerificationAge returns the age, in seconds, of the most recently
// published verification-feed activity. If there aren't any activities yet
// this is ErrMetricsUnavailable, not an error — the sampler silently skips
// the label until one appears.
func (g *Gateway) MinVerificationAge(ctx context.Context, now time.Time) (float64, error) {
	body := fmt.Sprintf(`{
		"size": 0,
		"query": {"term": {"object.type": %q}},
		"aggs": {"max_published": {"max": {"field": "published"}}}
	}`, verifierActivityType)

	resp, err := esapi.SearchRequest{Index: []string{Alias}, Body: strings.NewReader(body)}.Do(ctx, g.es)
	if err != nil {
		return 0, fmt.Errorf("esgateway: verification age query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 503 {
		return 0, ErrMetricsUnavailable
	}
	raw, err := readAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("esgateway: read verification age response: %w", err)
	}
	if resp.IsError() {
		return 0, &BackendError{Status: resp.StatusCode, Body: raw}
	}

	var decoded struct {
		Aggregations struct {
			MaxPublished struct {
				Value *float64 `json:"value"`
			} `json:"max_published"`
		} `json:"aggregations"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return 0, fmt.Errorf("esgateway: decode verification age response: %w", err)
	}
	if decoded.Aggregations.MaxPublished.Value == nil {
		return 0, ErrMetricsUnavailable
	}

	maxPublishedMillis := *decoded.Aggregations.MaxPublished.Value
	maxPublished := time.UnixMilli(int64(maxPublishedMillis)).UTC()
	age := now.Sub(maxPublished).Seconds()
	if age < 0 {
		return 0, errors.New("esgateway: verification activity published in the future")
	}
	return age, nil
}
