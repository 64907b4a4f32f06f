// Package signer produces the two outbound authentication schemes this
// service needs: Hawk (for feed requests) and AWS SigV4 (for the search
// backend). Both are pure functions over their inputs plus the current time;
// neither holds state.
package signer

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// HawkHeader computes a Hawk "Authorization" header value for a GET request
// with no body and no content-type, matching the MAC the feeds expect.
func HawkHeader(keyID, secret, rawURL, method string) (string, error) {
	return hawkHeaderAt(keyID, secret, rawURL, method, time.Now())
}

func hawkHeaderAt(keyID, secret, rawURL, method string, now time.Time) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("signer: parse feed url: %w", err)
	}

	ts := now.UTC().Unix()
	nonce, err := randomNonce(6)
	if err != nil {
		return "", fmt.Errorf("signer: generate nonce: %w", err)
	}

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	path := u.RequestURI()

	hash := PayloadHash("", nil)
	mac := hawkMAC(secret, ts, nonce, strings.ToUpper(method), path, host, port, hash, "")

	header := fmt.Sprintf(
		`Hawk id="%s", ts="%d", nonce="%s", mac="%s"`,
		keyID, ts, nonce, mac,
	)
	return header, nil
}

// hawkMAC reproduces the normalized-string + HMAC-SHA256 construction used
// by the Hawk scheme over the given payload hash and ext. HawkHeader passes
// the hash of an empty body and empty content-type; VerifyHawkMAC passes the
// hash of the incoming request's content-type and body.
func hawkMAC(secret string, ts int64, nonce, method, path, host, port, hash, ext string) string {
	normalized := strings.Join([]string{
		"hawk.1.header",
		fmt.Sprintf("%d", ts),
		nonce,
		method,
		path,
		host,
		port,
		hash,
		ext,
		"",
	}, "\n")

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(normalized))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func randomNonce(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HawkParams is one incoming request's parsed Authorization header.
type HawkParams struct {
	ID    string
	TS    int64
	Nonce string
	MAC   string
}

// ParseHawkHeader splits a `Hawk id="...", ts="...", nonce="...", mac="..."`
// header value into its fields. Order of attributes is not significant.
func ParseHawkHeader(header string) (HawkParams, error) {
	var p HawkParams
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, "Hawk ") {
		return p, fmt.Errorf("signer: not a Hawk header")
	}
	attrs := strings.Split(strings.TrimPrefix(header, "Hawk "), ",")
	for _, a := range attrs {
		a = strings.TrimSpace(a)
		kv := strings.SplitN(a, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		val := strings.Trim(strings.TrimSpace(kv[1]), `"`)
		switch key {
		case "id":
			p.ID = val
		case "ts":
			ts, err := parseInt64(val)
			if err != nil {
				return p, fmt.Errorf("signer: bad ts attribute: %w", err)
			}
			p.TS = ts
		case "nonce":
			p.Nonce = val
		case "mac":
			p.MAC = val
		}
	}
	if p.ID == "" || p.Nonce == "" || p.MAC == "" {
		return p, fmt.Errorf("signer: Hawk header missing required attribute")
	}
	return p, nil
}

func parseInt64(s string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

// PayloadHash computes the Hawk payload hash over contentType and body,
// matching the "hawk.1.payload" normalized-string construction.
func PayloadHash(contentType string, body []byte) string {
	normalized := strings.Join([]string{
		"hawk.1.payload",
		contentType,
		string(body),
		"",
	}, "\n")
	sum := sha256.Sum256([]byte(normalized))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// VerifyHawkMAC recomputes the expected MAC for an incoming request over
// (method, fullURL, contentType, body) under secret, and reports whether it
// matches params.MAC using a constant-time comparison.
func VerifyHawkMAC(secret string, params HawkParams, method, fullURL, contentType string, body []byte) (bool, error) {
	u, err := url.Parse(fullURL)
	if err != nil {
		return false, fmt.Errorf("signer: parse request url: %w", err)
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	hash := PayloadHash(contentType, body)
	expected := hawkMAC(secret, params.TS, params.Nonce, strings.ToUpper(method), u.RequestURI(), host, port, hash, "")
	return hmac.Equal([]byte(expected), []byte(params.MAC)), nil
}
