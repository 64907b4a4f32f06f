package signer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSigV4HeadersDeterministicForFixedInputsAndClock(t *testing.T) {
	clock := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	query := map[string]string{"scroll": "1m"}

	amzDate1, auth1 := sigV4HeadersAt("AKID", "secret", "eu-west-1", "es", "es.internal", "GET", "/activities/_search", query, "application/json", []byte(`{"q":1}`), clock)
	amzDate2, auth2 := sigV4HeadersAt("AKID", "secret", "eu-west-1", "es", "es.internal", "GET", "/activities/_search", query, "application/json", []byte(`{"q":1}`), clock)

	require.Equal(t, amzDate1, amzDate2)
	require.Equal(t, auth1, auth2)
	require.Equal(t, "20240315T123000Z", amzDate1)
}

func TestSigV4HeadersChangeWithPayload(t *testing.T) {
	clock := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	_, auth1 := sigV4HeadersAt("AKID", "secret", "eu-west-1", "es", "es.internal", "POST", "/_bulk", nil, "application/x-ndjson", []byte("a"), clock)
	_, auth2 := sigV4HeadersAt("AKID", "secret", "eu-west-1", "es", "es.internal", "POST", "/_bulk", nil, "application/x-ndjson", []byte("b"), clock)

	require.NotEqual(t, auth1, auth2)
}

func TestSigV4SignedHeadersIsExactlyContentTypeHostAmzDate(t *testing.T) {
	clock := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	_, auth := sigV4HeadersAt("AKID", "secret", "eu-west-1", "es", "es.internal", "GET", "/activities/_count", nil, "application/json", nil, clock)

	require.Contains(t, auth, "SignedHeaders=content-type;host;x-amz-date")
	require.Contains(t, auth, "Credential=AKID/20240315/eu-west-1/es/aws4_request")
}

func TestCanonicalQueryStringSortsKeys(t *testing.T) {
	got := canonicalQueryString(map[string]string{"b": "2", "a": "1"})
	require.Equal(t, "a=1&b=2", got)
}

func TestCanonicalQueryStringEmpty(t *testing.T) {
	require.Equal(t, "", canonicalQueryString(nil))
}
