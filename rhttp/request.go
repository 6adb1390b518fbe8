package rhttp

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/racewatch/racewatch/racecfg"
)

// BuildRequest constructs one *http.Request from a TestConfig, ready to
// be sent. The burst engine calls this before the barrier wait so that
// post-barrier work is pure I/O (§4.5.1 step 4a); the sustained modes
// call it inside each task, after a semaphore permit is acquired.
func BuildRequest(ctx context.Context, cfg *racecfg.TestConfig) (*http.Request, error) {
	var body *bytes.Reader
	if len(cfg.Body) > 0 {
		body = bytes.NewReader(cfg.Body)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, cfg.NormalizedMethod(), cfg.URL, body)
	if err != nil {
		return nil, fmt.Errorf("rhttp: build request: %w", err)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", UserAgent)
	return req, nil
}

// BuildWarmupProbe constructs the lightweight HEAD request used to prime
// the connection pool before a burst (§4.4).
func BuildWarmupProbe(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("rhttp: build warmup probe: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	return req, nil
}
