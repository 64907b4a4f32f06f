// Package errreport wires error reporting to Sentry. The Supervisor is the
// only caller: every non-cancellation failure that escapes a supervised task
// is reported here in addition to being logged.
package errreport

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// Client reports exceptions to Sentry, or is a no-op if no DSN was
// configured (local development, tests).
type Client struct {
	enabled bool
}

// New initializes the Sentry SDK. If dsn is empty, reporting is disabled and
// Report becomes a no-op; this matches feeds/environments that never set
// SENTRY_DSN.
func New(dsn, environment string) (*Client, error) {
	if dsn == "" {
		return &Client{enabled: false}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	}); err != nil {
		return nil, err
	}
	return &Client{enabled: true}, nil
}

// Report captures err as a Sentry exception. Callers pass context as tags
// (e.g. feed id, ingest type) for triage.
func (c *Client) Report(err error, tags map[string]string) {
	if c == nil || !c.enabled || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// Close flushes any buffered events, giving the SDK up to timeout to drain.
func (c *Client) Close(timeout time.Duration) {
	if c == nil || !c.enabled {
		return
	}
	sentry.Flush(timeout)
}
