package readapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/uktrade/activity-stream/internal/esgateway"
	"github.com/uktrade/activity-stream/internal/kv"
)

// activityCollection is the ActivityStreams Collection shape spec.md §6
// names for both object endpoints.
type activityCollection struct {
	Context      string            `json:"@context"`
	Type         string            `json:"type"`
	OrderedItems []json.RawMessage `json:"orderedItems"`
	Next         string            `json:"next,omitempty"`
}

type backendSearchResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func writeJSONError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"details": detail})
}

func (s *Server) writeCollection(w http.ResponseWriter, ctx context.Context, resp backendSearchResponse) {
	items := make([]json.RawMessage, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		items = append(items, h.Source)
	}

	collection := activityCollection{
		Context:      "https://www.w3.org/ns/activitystreams",
		Type:         "Collection",
		OrderedItems: items,
	}

	if len(items) > 0 && resp.ScrollID != "" {
		publicID, err := newPublicScrollID()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "Internal error.")
			return
		}
		if err := s.storeScrollID(ctx, publicID, resp.ScrollID); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "Internal error.")
			return
		}
		collection.Next = "/v1/objects/" + publicID
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(collection)
}

// handleObjects starts a new scroll over the activities alias, ordered by
// publication date.
func (s *Server) handleObjects(w http.ResponseWriter, r *http.Request) {
	pair, _ := authenticatedKey(r)
	if !hasPermission(pair, PermissionObjects) {
		writeJSONError(w, http.StatusForbidden, "Insufficient permissions.")
		return
	}

	body := []byte(`{"sort":[{"published_date":"asc"}],"query":{"match_all":{}}}`)
	_, raw, err := s.backend.Search(r.Context(), esgateway.Alias, body, scrollDuration)
	if err != nil {
		s.logger.Warn("objects search failed", zap.Error(err))
		writeJSONError(w, http.StatusBadGateway, "Search backend error.")
		return
	}

	var resp backendSearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		writeJSONError(w, http.StatusBadGateway, "Search backend error.")
		return
	}
	s.writeCollection(w, r.Context(), resp)
}

// handleObjectsScroll continues an existing scroll identified by its public
// token.
func (s *Server) handleObjectsScroll(w http.ResponseWriter, r *http.Request) {
	pair, _ := authenticatedKey(r)
	if !hasPermission(pair, PermissionObjects) {
		writeJSONError(w, http.StatusForbidden, "Insufficient permissions.")
		return
	}

	publicID := mux.Vars(r)["public_scroll_id"]
	privateID, ok, err := s.resolveScrollID(r.Context(), publicID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Internal error.")
		return
	}
	if !ok {
		writeJSONError(w, http.StatusNotFound, "Unknown or expired scroll id.")
		return
	}

	_, raw, err := s.backend.ScrollContinue(r.Context(), privateID, scrollDuration)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "Search backend error.")
		return
	}

	var resp backendSearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		writeJSONError(w, http.StatusBadGateway, "Search backend error.")
		return
	}

	items := make([]json.RawMessage, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		items = append(items, h.Source)
	}
	collection := activityCollection{
		Context:      "https://www.w3.org/ns/activitystreams",
		Type:         "Collection",
		OrderedItems: items,
	}
	if len(items) > 0 && resp.ScrollID != "" {
		if err := s.storeScrollID(r.Context(), publicID, resp.ScrollID); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "Internal error.")
			return
		}
		collection.Next = "/v1/objects/" + publicID
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(collection)
}

// handleIncoming is the authenticated write acknowledgement endpoint,
// preserved from original_source/core/app.py's `handle` (it never actually
// ingests the POST body; incoming data arrives only via the feed adapters).
func (s *Server) handleIncoming(w http.ResponseWriter, r *http.Request) {
	pair, _ := authenticatedKey(r)
	if !hasPermission(pair, PermissionIngest) {
		writeJSONError(w, http.StatusForbidden, "Insufficient permissions.")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"secret": "to-be-hidden"})
}

// handleMetrics serves the Prometheus text snapshot the sampler last wrote.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snapshot, ok, err := s.kvClient.Get(r.Context(), kv.KeyMetrics)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Internal error.")
		return
	}
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, _ = w.Write([]byte(snapshot))
}
