package feeds

import (
	"encoding/json"
	"fmt"

	"github.com/uktrade/activity-stream/internal/config"
	"github.com/uktrade/activity-stream/internal/signer"
)

// ActivityStream is the Adapter variant for feeds that already speak the
// W3C Activity Streams shape: a JSON object with an "orderedItems" array
// and an optional "next_url" string.
type ActivityStream struct {
	keyID  string
	secret string
}

func NewActivityStream(f config.Feed) *ActivityStream {
	return &ActivityStream{keyID: f.AccessKeyID, secret: f.SecretAccessKey}
}

func (a *ActivityStream) AuthHeader(url string) (string, error) {
	return signer.HawkHeader(a.keyID, a.secret, url, "GET")
}

type activityStreamPage struct {
	OrderedItems []json.RawMessage `json:"orderedItems"`
	NextURL      string            `json:"next_url"`
}

func (a *ActivityStream) Parse(body []byte) ([]json.RawMessage, string, error) {
	var page activityStreamPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", fmt.Errorf("feeds: parse activity_stream page: %w", err)
	}
	return page.OrderedItems, page.NextURL, nil
}

func (a *ActivityStream) ConvertToBulk(items []json.RawMessage, indexNames []string) ([]BulkRecord, error) {
	var out []BulkRecord
	for _, item := range items {
		id, err := activityID(item)
		if err != nil {
			return nil, err
		}
		source, err := sortedKeysJSON(json.RawMessage(item))
		if err != nil {
			return nil, fmt.Errorf("feeds: sort activity keys: %w", err)
		}
		for _, index := range indexNames {
			action, err := bulkActionFor(id, index)
			if err != nil {
				return nil, err
			}
			out = append(out, BulkRecord{Action: action, Source: source})
		}
	}
	return out, nil
}

func activityID(item json.RawMessage) (string, error) {
	var withID struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(item, &withID); err != nil {
		return "", fmt.Errorf("feeds: activity missing stable id: %w", err)
	}
	if withID.ID == "" {
		return "", fmt.Errorf("feeds: activity has empty id")
	}
	return withID.ID, nil
}
