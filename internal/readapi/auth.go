package readapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/uktrade/activity-stream/internal/config"
	"github.com/uktrade/activity-stream/internal/signer"
)

// Exact 401 body strings mandated by the external interface; these must not
// drift from what the façade's clients already depend on.
const (
	authNotProvided   = "Authentication credentials were not provided."
	authNoContentType = "Content-Type header was not set. It must be set for authentication, even if as the empty string."
	authIncorrect     = "Incorrect authentication credentials."
)

// PermissionObjects and PermissionIngest gate the two route groups. Neither
// is named by the external interface beyond "an access-key-to-permission
// table" existing, so this is this façade's own choice of what the table's
// values mean.
const (
	PermissionObjects = "objects"
	PermissionIngest  = "ingest"
)

type authenticatedKeyCtxKey struct{}

// authenticator holds the incoming access-key-pair table keyed by Hawk id.
type authenticator struct {
	keys map[string]config.AccessKeyPair
}

func newAuthenticator(pairs []config.AccessKeyPair) *authenticator {
	keys := make(map[string]config.AccessKeyPair, len(pairs))
	for _, p := range pairs {
		keys[p.KeyID] = p
	}
	return &authenticator{keys: keys}
}

func writeAuthError(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"details": detail})
}

// authMiddleware reproduces original_source/core/app.py's authenticate
// middleware: check Authorization present, Content-Type present, then
// verify the Hawk MAC over (method, full_url, content_type, body) against
// the matching key's secret. seen_nonce is not implemented — see
// signer.ParseHawkHeader's caller here, which never records or checks nonce
// reuse, matching the original's hard-coded seen_nonce=False.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeAuthError(w, authNotProvided)
			return
		}

		contentType, hasContentType := r.Header["Content-Type"]
		if !hasContentType {
			writeAuthError(w, authNoContentType)
			return
		}
		ct := ""
		if len(contentType) > 0 {
			ct = contentType[0]
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeAuthError(w, authIncorrect)
			return
		}
		r.Body.Close()

		params, err := signer.ParseHawkHeader(authHeader)
		if err != nil {
			s.logger.Warn("malformed Hawk header", zap.Error(err))
			writeAuthError(w, authIncorrect)
			return
		}

		pair, ok := s.auth.keys[params.ID]
		if !ok {
			s.logger.Warn("unknown Hawk access key id")
			writeAuthError(w, authIncorrect)
			return
		}

		fullURL := r.URL.String()
		if !r.URL.IsAbs() {
			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}
			fullURL = scheme + "://" + r.Host + r.URL.RequestURI()
		}

		ok, err = signer.VerifyHawkMAC(pair.SecretKey, params, r.Method, fullURL, ct, body)
		if err != nil || !ok {
			s.logger.Warn("failed Hawk verification")
			writeAuthError(w, authIncorrect)
			return
		}

		ctx := context.WithValue(r.Context(), authenticatedKeyCtxKey{}, pair)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authenticatedKey(r *http.Request) (config.AccessKeyPair, bool) {
	pair, ok := r.Context().Value(authenticatedKeyCtxKey{}).(config.AccessKeyPair)
	return pair, ok
}

func hasPermission(pair config.AccessKeyPair, permission string) bool {
	for _, p := range pair.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
