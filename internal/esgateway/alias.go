package esgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v9/esapi"
)

// AliasFlip performs the cutover: a single atomic _aliases request that
// removes every index matching removePattern from the alias and adds
// addIndex to it. The search backend guarantees no externally observable
// instant has both the old and the new index aliased, or neither.
func (g *Gateway) AliasFlip(ctx context.Context, addIndex, removePattern string) error {
	actions := []map[string]interface{}{
		{"remove": map[string]interface{}{"index": removePattern, "alias": Alias}},
		{"add": map[string]interface{}{"index": addIndex, "alias": Alias}},
	}
	payload, err := json.Marshal(map[string]interface{}{"actions": actions})
	if err != nil {
		return fmt.Errorf("esgateway: marshal alias_flip body: %w", err)
	}

	resp, err := esapi.IndicesUpdateAliasesRequest{
		Body: strings.NewReader(string(payload)),
	}.Do(ctx, g.es)
	if err != nil {
		return fmt.Errorf("esgateway: alias_flip: %w", err)
	}
	_, err = checkResponse(resp, false)
	return err
}
