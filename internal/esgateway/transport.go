package esgateway

import (
	"bytes"
	"io"
	"net/http"

	"github.com/uktrade/activity-stream/internal/config"
	"github.com/uktrade/activity-stream/internal/signer"
)

// signingTransport is an http.RoundTripper that signs every request against
// the search backend with AWS SigV4 before delegating to the underlying
// transport. It reads the request body into memory (bulk bodies and search
// bodies here are always small enough that this is the simpler option over
// a ReadSeeker contract).
type signingTransport struct {
	next   http.RoundTripper
	region string
	access string
	secret string
}

func newSigningTransport(es config.Elasticsearch, next http.RoundTripper) *signingTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &signingTransport{
		next:   next,
		region: es.Region,
		access: es.AccessKeyID,
		secret: es.SecretAccessKey,
	}
}

func (t *signingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(payload))
		req.ContentLength = int64(len(payload))
	}

	contentType := req.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
		req.Header.Set("Content-Type", contentType)
	}

	host := req.URL.Host
	query := map[string]string{}
	for k, vs := range req.URL.Query() {
		if len(vs) > 0 {
			query[k] = vs[0]
		}
	}

	amzDate, authorization := signer.SigV4Headers(
		t.access, t.secret, t.region, "es",
		host, req.Method, req.URL.Path, query, contentType, payload,
	)

	req.Header.Set("x-amz-date", amzDate)
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Host", host)

	return t.next.RoundTrip(req)
}
