package signer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHawkHeaderAtContainsExpectedFields(t *testing.T) {
	clock := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	header, err := hawkHeaderAt("feed-key", "feed-secret", "http://feed.example/activities", "GET", clock)
	require.NoError(t, err)

	require.Contains(t, header, `Hawk id="feed-key"`)
	require.Contains(t, header, `ts="1710505800"`)
	require.Contains(t, header, `mac="`)
}

func TestHawkHeaderRejectsUnparsableURL(t *testing.T) {
	_, err := HawkHeader("k", "s", "://bad", "GET")
	require.Error(t, err)
}

func TestHawkMACDependsOnMethodAndPath(t *testing.T) {
	mac1 := hawkMAC("secret", 1710505800, "nonce", "GET", "/a", "host", "80", "", "")
	mac2 := hawkMAC("secret", 1710505800, "nonce", "GET", "/b", "host", "80", "", "")
	require.NotEqual(t, mac1, mac2)
}

func TestParseHawkHeaderExtractsAllAttributes(t *testing.T) {
	p, err := ParseHawkHeader(`Hawk id="k1", ts="1710505800", nonce="abc123", mac="deadbeef"`)
	require.NoError(t, err)
	require.Equal(t, "k1", p.ID)
	require.Equal(t, int64(1710505800), p.TS)
	require.Equal(t, "abc123", p.Nonce)
	require.Equal(t, "deadbeef", p.MAC)
}

func TestParseHawkHeaderRejectsNonHawkScheme(t *testing.T) {
	_, err := ParseHawkHeader(`Bearer sometoken`)
	require.Error(t, err)
}

func TestParseHawkHeaderRejectsMissingAttribute(t *testing.T) {
	_, err := ParseHawkHeader(`Hawk id="k1", ts="1710505800", nonce="abc123"`)
	require.Error(t, err)
}

func TestPayloadHashChangesWithBodyAndContentType(t *testing.T) {
	h1 := PayloadHash("application/json", []byte(`{"a":1}`))
	h2 := PayloadHash("application/json", []byte(`{"a":2}`))
	h3 := PayloadHash("text/plain", []byte(`{"a":1}`))
	require.NotEqual(t, h1, h2)
	require.NotEqual(t, h1, h3)
}

func TestVerifyHawkMACAcceptsItsOwnConstruction(t *testing.T) {
	secret := "shared-secret"
	body := []byte(`{"hello":"world"}`)
	hash := PayloadHash("application/json", body)
	mac := hawkMAC(secret, 1710505800, "nonce1", "POST", "/v1/objects", "example.com", "443", hash, "")

	params := HawkParams{ID: "k1", TS: 1710505800, Nonce: "nonce1", MAC: mac}
	ok, err := VerifyHawkMAC(secret, params, "POST", "https://example.com/v1/objects", "application/json", body)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyHawkMACRejectsTamperedBody(t *testing.T) {
	secret := "shared-secret"
	hash := PayloadHash("application/json", []byte(`{"hello":"world"}`))
	mac := hawkMAC(secret, 1710505800, "nonce1", "POST", "/v1/objects", "example.com", "443", hash, "")

	params := HawkParams{ID: "k1", TS: 1710505800, Nonce: "nonce1", MAC: mac}
	ok, err := VerifyHawkMAC(secret, params, "POST", "https://example.com/v1/objects", "application/json", []byte(`{"hello":"mallory"}`))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyHawkMACRejectsWrongSecret(t *testing.T) {
	body := []byte(`{}`)
	hash := PayloadHash("application/json", body)
	mac := hawkMAC("right-secret", 1710505800, "nonce1", "GET", "/v1/objects", "example.com", "443", hash, "")

	params := HawkParams{ID: "k1", TS: 1710505800, Nonce: "nonce1", MAC: mac}
	ok, err := VerifyHawkMAC("wrong-secret", params, "GET", "https://example.com/v1/objects", "application/json", body)
	require.NoError(t, err)
	require.False(t, ok)
}
