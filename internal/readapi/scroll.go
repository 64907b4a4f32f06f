package readapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/uktrade/activity-stream/internal/kv"
)

const scrollTTL = 90 * time.Second // >= scrollDuration ("1m"), per spec.md §4.9.

// newPublicScrollID mints an opaque token clients use in place of the
// backend's private scroll cursor.
func newPublicScrollID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("readapi: generate scroll id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// storeScrollID records the public->private mapping with a TTL longer than
// the backend scroll timeout so a client's next request can still resolve
// it.
func (s *Server) storeScrollID(ctx context.Context, publicID, privateID string) error {
	return s.kvClient.Set(ctx, kv.PrivateScrollIDKey(publicID), privateID, scrollTTL)
}

func (s *Server) resolveScrollID(ctx context.Context, publicID string) (string, bool, error) {
	return s.kvClient.Get(ctx, kv.PrivateScrollIDKey(publicID))
}
