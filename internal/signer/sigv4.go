package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	sigv4Algorithm    = "AWS4-HMAC-SHA256"
	sigv4RequestType  = "aws4_request"
	sigv4SignedHeader = "content-type;host;x-amz-date"
)

// SigV4Headers computes the x-amz-date and Authorization headers for a
// request against the search backend, following the AWS Signature Version 4
// algorithm. contentType, host and path participate in the signature exactly
// as signedHeaders names them; query is the already-decoded set of query
// parameters.
func SigV4Headers(accessKey, secret, region, service, host, method, path string, query map[string]string, contentType string, payload []byte) (amzDate, authorization string) {
	return sigV4HeadersAt(accessKey, secret, region, service, host, method, path, query, contentType, payload, time.Now())
}

func sigV4HeadersAt(accessKey, secret, region, service, host, method, path string, query map[string]string, contentType string, payload []byte, now time.Time) (string, string) {
	now = now.UTC()
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")

	canonicalQuery := canonicalQueryString(query)
	canonicalHeaders := fmt.Sprintf("content-type:%s\nhost:%s\nx-amz-date:%s\n", strings.TrimSpace(contentType), strings.TrimSpace(host), amzDate)
	payloadHash := hexSHA256(payload)

	canonicalRequest := strings.Join([]string{
		strings.ToUpper(method),
		path,
		canonicalQuery,
		canonicalHeaders,
		sigv4SignedHeader,
		payloadHash,
	}, "\n")

	scope := fmt.Sprintf("%s/%s/%s/%s", dateStamp, region, service, sigv4RequestType)
	stringToSign := strings.Join([]string{
		sigv4Algorithm,
		amzDate,
		scope,
		hexSHA256([]byte(canonicalRequest)),
	}, "\n")

	signingKey := sigv4SigningKey(secret, dateStamp, region, service)
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	authorization := fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		sigv4Algorithm, accessKey, scope, sigv4SignedHeader, signature,
	)

	return amzDate, authorization
}

func sigv4SigningKey(secret, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, sigv4RequestType)
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// canonicalQueryString sorts query parameters by key and URL-encodes each
// key/value pair, matching the canonical query construction AWS requires.
func canonicalQueryString(query map[string]string) string {
	if len(query) == 0 {
		return ""
	}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", url.QueryEscape(k), url.QueryEscape(query[k])))
	}
	return strings.Join(pairs, "&")
}
