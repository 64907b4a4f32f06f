package readapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyLimiterAllowsUpToBurstThenThrottles(t *testing.T) {
	l := newKeyLimiter(1, 3, time.Minute)

	require.True(t, l.allow("k1"))
	require.True(t, l.allow("k1"))
	require.True(t, l.allow("k1"))
	require.False(t, l.allow("k1"))
}

func TestKeyLimiterTracksKeysIndependently(t *testing.T) {
	l := newKeyLimiter(1, 1, time.Minute)

	require.True(t, l.allow("k1"))
	require.False(t, l.allow("k1"))
	require.True(t, l.allow("k2"))
}

func TestKeyLimiterCleansUpStaleEntries(t *testing.T) {
	l := newKeyLimiter(1, 1, time.Millisecond)
	require.True(t, l.allow("k1"))

	time.Sleep(5 * time.Millisecond)
	l.lastCleanup = time.Time{} // force the cleanup branch on the next call
	require.True(t, l.allow("k2"))

	l.mu.Lock()
	_, stillPresent := l.entries["k1"]
	l.mu.Unlock()
	require.False(t, stillPresent)
}
