// Package rhttp builds the process-wide, reusable HTTP client shared by
// all tasks within a run (§4.1).
package rhttp

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/racewatch/racewatch/racecfg"
)

// UserAgent is the fixed user-agent string sent with every request,
// the same technique as fhttp.HTTPOptions.GenerateHeaders fixing a
// default UA for the runner's identity.
const UserAgent = "racewatch-loadgen/1.0"

// idleTimeout is the connection-idle eviction window (§4.1).
const idleTimeout = 90 * time.Second

// keepAlive is the TCP keep-alive interval for dialed connections.
const keepAlive = 30 * time.Second

// allowSelfSigned gates the permissive TLS policy this is a load-testing
// tool meant to hit endpoints under test, including ones with self-signed
// or otherwise unverified certificates, so the pool skips chain
// verification by default (documented, not accidental).
const allowSelfSigned = true

// NewClient builds a process-wide *http.Client parameterized by the
// per-request timeout. Construction failure is reported to the caller
// (the Run Controller treats it as fatal for the run, per §4.1).
func NewClient(timeoutMs int) (*http.Client, error) {
	timeout := time.Duration(timeoutMs) * time.Millisecond
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: keepAlive,
	}
	transport := &http.Transport{
		MaxIdleConns:        racecfg.MaxWarmupConnections,
		MaxIdleConnsPerHost: racecfg.MaxWarmupConnections,
		IdleConnTimeout:     idleTimeout,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: timeout,
		ForceAttemptHTTP2:   true,
		Proxy:               http.ProxyFromEnvironment,
	}
	if allowSelfSigned {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // nolint:gosec
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		// CheckRedirect is left nil: net/http's default policy (follow up
		// to 10 redirects) matches the ground-truth client's default
		// (reqwest::Client::builder() with no .redirect() override), so a
		// 3xx response's latency/status reflects the final hop rather than
		// being reported as a redirect itself.
	}, nil
}
