package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/uktrade/activity-stream/internal/feeds"
	"github.com/uktrade/activity-stream/internal/httpclient"
)

// fakeGateway is an in-memory stand-in for the search backend: indexes are
// just names in two sets (building / live-aliased), and Bulk records what it
// was handed without actually storing documents.
type fakeGateway struct {
	mu           sync.Mutex
	building     map[string]bool
	live         map[string]bool
	bulked       []feeds.BulkRecord
	refreshed    []string
	aliasFlips   int
	failBulkOnce bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{building: map[string]bool{}, live: map[string]bool{}}
}

func (g *fakeGateway) ListIndexes(ctx context.Context) ([]string, []string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var without, with []string
	for n := range g.building {
		without = append(without, n)
	}
	for n := range g.live {
		with = append(with, n)
	}
	return without, with, nil
}

func (g *fakeGateway) CreateIndex(ctx context.Context, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.building[name] = true
	return nil
}

func (g *fakeGateway) PutMapping(ctx context.Context, name string) error { return nil }

func (g *fakeGateway) RefreshIndex(ctx context.Context, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refreshed = append(g.refreshed, name)
	return nil
}

func (g *fakeGateway) DeleteIndex(ctx context.Context, name string, allow404 bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.building, name)
	delete(g.live, name)
	return nil
}

func (g *fakeGateway) AliasFlip(ctx context.Context, addIndex, removePattern string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.aliasFlips++
	prefix := removePattern
	if strings.HasSuffix(prefix, "*") {
		prefix = prefix[:len(prefix)-1]
	}
	for n := range g.live {
		if strings.HasPrefix(n, prefix) {
			delete(g.live, n)
		}
	}
	delete(g.building, addIndex)
	g.live[addIndex] = true
	return nil
}

func (g *fakeGateway) Bulk(ctx context.Context, records []feeds.BulkRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failBulkOnce {
		g.failBulkOnce = false
		return fmt.Errorf("fakeGateway: simulated bulk failure")
	}
	g.bulked = append(g.bulked, records...)
	return nil
}

// fakeKV is an in-memory stand-in for the Redis-backed KV store.
type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (k *fakeKV) Get(ctx context.Context, key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.data[key]
	return v, ok, nil
}

func (k *fakeKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.data[key] = value
	return nil
}

// fakeHTTP serves fixed, fed-in pages for one or more URLs, recording how
// many times each URL was fetched.
type fakeHTTP struct {
	mu     sync.Mutex
	pages  map[string]string
	status map[string]int
	calls  map[string]int
}

func newFakeHTTP() *fakeHTTP {
	return &fakeHTTP{pages: map[string]string{}, status: map[string]int{}, calls: map[string]int{}}
}

func (h *fakeHTTP) setPage(url, body string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pages[url] = body
	h.status[url] = 200
}

func (h *fakeHTTP) Request(ctx context.Context, method, rawURL string, query, headers map[string]string, body []byte) (*httpclient.Response, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls[rawURL]++
	status, ok := h.status[rawURL]
	if !ok {
		return nil, fmt.Errorf("fakeHTTP: no page configured for %s", rawURL)
	}
	return &httpclient.Response{Status: status, Body: []byte(h.pages[rawURL])}, nil
}

// fakeAdapter turns a fixed page-body-to-(items,next) table into a
// feeds.Adapter, skipping real parsing so tests can drive the engine with
// trivial fixtures.
type fakeAdapter struct {
	pages map[string]fakeParsed
}

type fakeParsed struct {
	items   []json.RawMessage
	nextURL string
}

func (a *fakeAdapter) AuthHeader(url string) (string, error) { return "fake-auth", nil }

func (a *fakeAdapter) Parse(body []byte) ([]json.RawMessage, string, error) {
	p, ok := a.pages[string(body)]
	if !ok {
		return nil, "", fmt.Errorf("fakeAdapter: unexpected body %q", body)
	}
	return p.items, p.nextURL, nil
}

func (a *fakeAdapter) ConvertToBulk(items []json.RawMessage, indexNames []string) ([]feeds.BulkRecord, error) {
	var out []feeds.BulkRecord
	for _, item := range items {
		for _, idx := range indexNames {
			out = append(out, feeds.BulkRecord{
				Action: json.RawMessage(fmt.Sprintf(`{"index":{"_index":%q}}`, idx)),
				Source: item,
			})
		}
	}
	return out, nil
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
