package readapi

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// keyLimiter is a per-Hawk-access-key token bucket limiter, adapted from the
// teacher's per-IP limiter (internal/api/ratelimit.go): same lazily
// allocated map-of-limiters-with-periodic-cleanup shape, keyed here by
// authenticated access key id rather than client IP, since this façade's
// clients are identified callers, not anonymous browsers.
type keyLimiter struct {
	mu          sync.Mutex
	entries     map[string]*rateLimiterEntry
	lastCleanup time.Time

	rps   rate.Limit
	burst int
	ttl   time.Duration
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newKeyLimiter(rps float64, burst int, ttl time.Duration) *keyLimiter {
	return &keyLimiter{
		entries: make(map[string]*rateLimiterEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		ttl:     ttl,
	}
}

func (l *keyLimiter) allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastCleanup.IsZero() || now.Sub(l.lastCleanup) > time.Minute {
		for k, v := range l.entries {
			if now.Sub(v.lastSeen) > l.ttl {
				delete(l.entries, k)
			}
		}
		l.lastCleanup = now
	}

	ent := l.entries[key]
	if ent == nil {
		ent = &rateLimiterEntry{limiter: rate.NewLimiter(l.rps, l.burst), lastSeen: now}
		l.entries[key] = ent
	} else {
		ent.lastSeen = now
	}

	return ent.limiter.Allow()
}

// rateLimitMiddleware runs after authMiddleware, so it always sees an
// authenticated key in context; requests that failed auth never reach here.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pair, ok := authenticatedKey(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if !s.limiter.allow(pair.KeyID) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"details":"Request was throttled."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
