// Package readapi implements the Read Façade (C9): the authenticated HTTP
// surface that serves ingested activities back out, translates backend
// scroll cursors into opaque public tokens, rate-limits per access key, and
// serves the Prometheus snapshot the sampler publishes to the KV store. Its
// routing shape is grounded in the teacher's internal/api/server_bootstrap.go
// (gorilla/mux router, middleware chain, http.Server wrapped in Start/
// Shutdown); its Hawk middleware is grounded in original_source/core/app.py's
// create_incoming_application, generalised from a single access key pair to
// the configured table of them.
package readapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/uktrade/activity-stream/internal/config"
)

const scrollDuration = "1m"

// Server is the read façade's HTTP surface.
type Server struct {
	httpServer *http.Server
	backend    searchBackend
	kvClient   kvStore
	logger     *zap.Logger

	auth      *authenticator
	limiter   *keyLimiter
	whitelist *ipWhitelist
}

// New builds the façade's router and wraps it in an *http.Server listening
// on addr (":<port>").
func New(addr string, backend searchBackend, kvClient kvStore, keys []config.AccessKeyPair, ipWhitelist []string, logger *zap.Logger) *Server {
	s := &Server{
		backend:   backend,
		kvClient:  kvClient,
		logger:    logger,
		auth:      newAuthenticator(keys),
		limiter:   newKeyLimiter(10, 20, 15*time.Minute),
		whitelist: newIPWhitelist(ipWhitelist),
	}

	r := mux.NewRouter()
	r.Use(s.whitelistMiddleware)
	r.Use(s.authMiddleware)
	r.Use(s.rateLimitMiddleware)

	r.HandleFunc("/v1/objects", s.handleObjects).Methods(http.MethodGet)
	r.HandleFunc("/v1/objects/{public_scroll_id}", s.handleObjectsScroll).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleIncoming).Methods(http.MethodPost)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

// Start runs the listener until it errors or Shutdown is called.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
