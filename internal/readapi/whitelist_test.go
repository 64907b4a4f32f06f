package readapi

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIPWhitelistDisabledWhenEmpty(t *testing.T) {
	w := newIPWhitelist(nil)
	require.False(t, w.enabled())
	require.False(t, w.allowed("1.2.3.4"))
}

func TestIPWhitelistMatchesExactIP(t *testing.T) {
	w := newIPWhitelist([]string{"1.2.3.4"})
	require.True(t, w.enabled())
	require.True(t, w.allowed("1.2.3.4"))
	require.False(t, w.allowed("1.2.3.5"))
}

func TestIPWhitelistMatchesCIDR(t *testing.T) {
	w := newIPWhitelist([]string{"10.0.0.0/8"})
	require.True(t, w.allowed("10.1.2.3"))
	require.False(t, w.allowed("11.1.2.3"))
}

func TestClientIPPrefersForwardedForHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com/", nil)
	req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	req.RemoteAddr = "127.0.0.1:5555"

	require.Equal(t, "9.9.9.9", clientIP(req))
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com/", nil)
	req.RemoteAddr = "127.0.0.1:5555"

	require.Equal(t, "127.0.0.1", clientIP(req))
}
