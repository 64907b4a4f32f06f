// Package esgateway implements the Search Gateway (C3): every index, alias,
// bulk, search, and count operation against the search backend, signed with
// AWS SigV4. It is built on go-elasticsearch's esapi package, the same
// client family used by the pack's only other search-backend-lifecycle
// component (index rollover/cleanup tooling), with a custom signing
// http.RoundTripper standing in for esapi's usual static-credential
// transports since this service signs per-request with a hand-rolled
// construction rather than a prebuilt AWS SDK signer.
package esgateway

import (
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/uktrade/activity-stream/internal/config"
)

// Alias is the literal alias name every feed's live index is a member of.
const Alias = "activities"

type Gateway struct {
	es   *elasticsearch.Client
	host string
}

// New builds a Gateway against the configured backend.
func New(cfg config.Elasticsearch) (*Gateway, error) {
	rt := newSigningTransport(cfg, nil)
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.BaseURL()},
		Transport: rt,
	})
	if err != nil {
		return nil, fmt.Errorf("esgateway: build client: %w", err)
	}
	return &Gateway{es: client, host: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)}, nil
}

// checkResponse turns any non-2xx esapi.Response into a *BackendError,
// except when allow404 is set and the status is exactly 404 (used by
// DeleteIndex when the caller explicitly tolerates an absent index).
func checkResponse(resp *esapi.Response, allow404 bool) ([]byte, error) {
	defer resp.Body.Close()
	body, err := readAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("esgateway: read response: %w", err)
	}
	if resp.IsError() {
		if allow404 && resp.StatusCode == 404 {
			return body, nil
		}
		return body, &BackendError{Status: resp.StatusCode, Body: body}
	}
	return body, nil
}
