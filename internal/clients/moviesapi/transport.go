package moviesapi

import (
	"errors"
	"net/http"
	"time"
)

// retryTransport retries replayable requests (GET/HEAD without a body) on
// transport errors. Mutations are sent exactly once.
type retryTransport struct {
	Base     http.RoundTripper
	RetryMax int
	Backoff  time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && (req.Body == nil || req.Body == http.NoBody)
	retries := max(t.RetryMax, 0)
	if !canRetry {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 && t.Backoff > 0 {
			select {
			case <-req.Context().Done():
				return nil, lastErr
			case <-time.After(t.Backoff * time.Duration(attempt)):
			}
		}
		resp, err := base.RoundTrip(req.Clone(req.Context()))
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}
