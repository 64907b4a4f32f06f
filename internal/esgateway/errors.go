package esgateway

import (
	"errors"
	"fmt"
)

// ErrMetricsUnavailable is the sentinel the Metrics Sampler treats as "skip
// this label this round", never as an error to log or report.
var ErrMetricsUnavailable = errors.New("esgateway: metrics temporarily unavailable")

// BackendError wraps any non-2xx response from the search backend that
// isn't one of the explicit exemptions (the 503-on-count metrics path).
type BackendError struct {
	Status int
	Body   []byte
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("esgateway: backend returned %d: %s", e.Status, truncate(e.Body, 512))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "...(truncated)"
}
