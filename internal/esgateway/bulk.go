package esgateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/uktrade/activity-stream/internal/feeds"
)

// Bulk writes records to the backend's /_bulk endpoint. An empty slice is a
// no-op (the backend would otherwise reject an empty body). The emitted
// body has exactly 2n+1 newlines for n items: one pair per record plus the
// trailing newline the backend requires.
func (g *Gateway) Bulk(ctx context.Context, records []feeds.BulkRecord) error {
	if len(records) == 0 {
		return nil
	}

	resp, err := esapi.BulkRequest{
		Body: strings.NewReader(buildBulkBody(records)),
	}.Do(ctx, g.es)
	if err != nil {
		return fmt.Errorf("esgateway: bulk: %w", err)
	}
	_, err = checkResponse(resp, false)
	return err
}

// buildBulkBody serialises records into the backend's newline-delimited
// bulk format: (action\n source\n)* followed by one final \n — exactly 2n+1
// newlines for n records, including the trailing one the backend requires.
func buildBulkBody(records []feeds.BulkRecord) string {
	if len(records) == 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range records {
		b.Write(r.Action)
		b.WriteByte('\n')
		b.Write(r.Source)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String()
}
