package feeds

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uktrade/activity-stream/internal/config"
)

func TestRegistryForUnknownTypeErrors(t *testing.T) {
	r := NewRegistry()
	_, err := r.For(config.Feed{Type: "rss"})
	require.Error(t, err)
}

func TestRegistryForKnownTypes(t *testing.T) {
	r := NewRegistry()
	a, err := r.For(config.Feed{Type: config.FeedTypeActivityStream, AccessKeyID: "k", SecretAccessKey: "s"})
	require.NoError(t, err)
	require.IsType(t, &ActivityStream{}, a)

	z, err := r.For(config.Feed{Type: config.FeedTypeZendesk, AccessKeyID: "k", SecretAccessKey: "s"})
	require.NoError(t, err)
	require.IsType(t, &Zendesk{}, z)
}

func TestActivityStreamParseExtractsItemsAndNextURL(t *testing.T) {
	a := NewActivityStream(config.Feed{AccessKeyID: "k", SecretAccessKey: "s"})
	body := []byte(`{"orderedItems":[{"id":"a"},{"id":"b"}],"next_url":"http://feed/2"}`)

	items, next, err := a.Parse(body)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "http://feed/2", next)
}

func TestActivityStreamParseEmptyNextURLOnTerminalPage(t *testing.T) {
	a := NewActivityStream(config.Feed{})
	items, next, err := a.Parse([]byte(`{"orderedItems":[{"id":"c"}]}`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "", next)
}

func TestActivityStreamConvertToBulkFansOutToEveryIndex(t *testing.T) {
	a := NewActivityStream(config.Feed{})
	items := []json.RawMessage{[]byte(`{"id":"a"}`), []byte(`{"id":"b"}`)}

	records, err := a.ConvertToBulk(items, []string{"idx1", "idx2"})
	require.NoError(t, err)
	require.Len(t, records, 4)
}

func TestActivityStreamConvertToBulkRejectsMissingID(t *testing.T) {
	a := NewActivityStream(config.Feed{})
	items := []json.RawMessage{[]byte(`{"no_id":true}`)}

	_, err := a.ConvertToBulk(items, []string{"idx1"})
	require.Error(t, err)
}

func TestSortedKeysJSONOrdersObjectKeys(t *testing.T) {
	raw, err := sortedKeysJSON(map[string]interface{}{"b": 1, "a": 2})
	require.NoError(t, err)
	require.JSONEq(t, `{"a":2,"b":1}`, string(raw))
	require.Equal(t, `{"a":2,"b":1}`, string(raw))
}

func TestZendeskParseTranslatesAuditsToActivities(t *testing.T) {
	z := NewZendesk(config.Feed{})
	body := []byte(`{"audits":[{"id":1,"ticket_id":42,"created_at":"2024-01-01T00:00:00Z","events":[]}],"next_page":"http://feed/next"}`)

	items, next, err := z.Parse(body)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "http://feed/next", next)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(items[0], &decoded))
	require.Equal(t, "dit:zendesk:Audit:1", decoded["id"])
}
