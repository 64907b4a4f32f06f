package ingest

import "sync"

// feedMutex guarantees at most one outbound HTTP fetch per feed is
// in-flight at a time. It is held only around the fetch call, never across
// parse/push, so the full and updates loops never serialise on anything but
// the network request itself.
type feedMutex struct {
	mu sync.Mutex
}

func newFeedMutex() *feedMutex {
	return &feedMutex{}
}

func (m *feedMutex) Lock()   { m.mu.Lock() }
func (m *feedMutex) Unlock() { m.mu.Unlock() }
