package feeds

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/uktrade/activity-stream/internal/config"
	"github.com/uktrade/activity-stream/internal/signer"
)

// Zendesk is the Adapter variant for Zendesk's ticket-audit export format.
// Its vendor-specific page shape and pagination rule are translated into the
// same activity-stream-like fan-out before bulk conversion.
type Zendesk struct {
	keyID  string
	secret string
}

func NewZendesk(f config.Feed) *Zendesk {
	return &Zendesk{keyID: f.AccessKeyID, secret: f.SecretAccessKey}
}

func (z *Zendesk) AuthHeader(url string) (string, error) {
	return signer.HawkHeader(z.keyID, z.secret, url, "GET")
}

type zendeskAudit struct {
	ID         int64           `json:"id"`
	TicketID   int64           `json:"ticket_id"`
	CreatedAt  string          `json:"created_at"`
	Events     json.RawMessage `json:"events"`
}

type zendeskPage struct {
	AuditLogs []zendeskAudit `json:"audits"`
	NextPage  string         `json:"next_page"`
}

func (z *Zendesk) Parse(body []byte) ([]json.RawMessage, string, error) {
	var page zendeskPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", fmt.Errorf("feeds: parse zendesk page: %w", err)
	}

	items := make([]json.RawMessage, 0, len(page.AuditLogs))
	for _, audit := range page.AuditLogs {
		transformed, err := zendeskAuditToActivity(audit)
		if err != nil {
			return nil, "", err
		}
		items = append(items, transformed)
	}
	// Zendesk's pagination terminates when next_page is empty, same
	// externally-visible rule as the activity_stream variant's next_url.
	return items, page.NextPage, nil
}

func zendeskAuditToActivity(audit zendeskAudit) (json.RawMessage, error) {
	doc := map[string]interface{}{
		"id":             "dit:zendesk:Audit:" + strconv.FormatInt(audit.ID, 10),
		"published":      audit.CreatedAt,
		"type":           "Create",
		"object": map[string]interface{}{
			"type":    "dit:zendesk:Ticket:" + strconv.FormatInt(audit.TicketID, 10),
			"content": audit.Events,
		},
	}
	return sortedKeysJSON(doc)
}

func (z *Zendesk) ConvertToBulk(items []json.RawMessage, indexNames []string) ([]BulkRecord, error) {
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
