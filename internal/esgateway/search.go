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

// mustParseDuration parses a scroll duration like "1m"; an unparsable value
// (which would only happen from a caller-side programming error, never from
// end-user input) falls back to one minute rather than panicking.
func mustParseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Minute
	}
	return d
}

// Count returns the document count for indexPattern (an alias, a wildcard
// pattern, or an exclusion expression like "activities_*,-*activities").
// A 503 from the backend is translated to ErrMetricsUnavailable rather than
// a BackendError, since the sampler must skip it silently.
func (g *Gateway) Count(ctx context.Context, indexPattern string) (int64, error) {
	resp, err := esapi.CountRequest{Index: []string{indexPattern}}.Do(ctx, g.es)
	if err != nil {
		return 0, fmt.Errorf("esgateway: count %s: %w", indexPattern, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 503 {
		return 0, ErrMetricsUnavailable
	}
	body, err := readAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("esgateway: read count response: %w", err)
	}
	if resp.IsError() {
		return 0, &BackendError{Status: resp.StatusCode, Body: body}
	}

	var decoded struct {
		Count int64 `json:"count"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return 0, fmt.Errorf("esgateway: decode count response: %w", err)
	}
	return decoded.Count, nil
}

// Search runs a query against index (typically the "activities" alias) and
// returns the raw response body and status. scroll, if non-empty, is passed
// through as the scroll duration query parameter (e.g. "1m"); translating
// the backend's private scroll id into the read façade's opaque public
// token is the façade's responsibility, not this gateway's (see
// internal/readapi).
func (g *Gateway) Search(ctx context.Context, index string, body []byte, scroll string) (int, []byte, error) {
	opts := []func(*esapi.SearchRequest){}
	if scroll != "" {
		opts = append(opts, func(r *esapi.SearchRequest) { r.Scroll = mustParseDuration(scroll) })
	}

	req := esapi.SearchRequest{Index: []string{index}, Body: strings.NewReader(string(body))}
	for _, opt := range opts {
		opt(&req)
	}

	resp, err := req.Do(ctx, g.es)
	if err != nil {
		return 0, nil, fmt.Errorf("esgateway: search %s: %w", index, err)
	}
	defer resp.Body.Close()
	respBody, err := readAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("esgateway: read search response: %w", err)
	}
	if resp.IsError() {
		return resp.StatusCode, respBody, &BackendError{Status: resp.StatusCode, Body: respBody}
	}
	return resp.StatusCode, respBody, nil
}

// ScrollContinue fetches the next page for an existing scroll cursor.
func (g *Gateway) ScrollContinue(ctx context.Context, scrollID, scroll string) (int, []byte, error) {
	req := esapi.ScrollRequest{ScrollID: scrollID, Scroll: mustParseDuration(scroll)}
	resp, err := req.Do(ctx, g.es)
	if err != nil {
		return 0, nil, fmt.Errorf("esgateway: scroll continue: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := readAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("esgateway: read scroll response: %w", err)
	}
	if resp.StatusCode == 404 {
		return resp.StatusCode, respBody, errors.New("esgateway: scroll cursor not found")
	}
	if resp.IsError() {
		return resp.StatusCode, respBody, &BackendError{Status: resp.StatusCode, Body: respBody}
	}
	return resp.StatusCode, respBody, nil
}
