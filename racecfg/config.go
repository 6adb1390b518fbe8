// Package racecfg defines the immutable input to one load test run.
package racecfg

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// Mode selects the traffic shape a run drives against the target.
type Mode int

const (
	// Burst fires all virtual users at (nearly) the same instant.
	Burst Mode = iota
	// Constant maintains a fixed number of in-flight requests for a duration.
	Constant
	// RampUp grows concurrency in five steps over a duration.
	RampUp
	// StressTest doubles concurrency wave over wave until it finds a failure threshold.
	StressTest
)

func (m Mode) String() string {
	switch m {
	case Burst:
		return "Burst"
	case Constant:
		return "Constant"
	case RampUp:
		return "RampUp"
	case StressTest:
		return "StressTest"
	default:
		return "Unknown"
	}
}

// ParseMode accepts case-insensitive mode names, defaulting to Burst.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "constant":
		return Constant
	case "rampup", "ramp-up", "ramp_up":
		return RampUp
	case "stresstest", "stress-test", "stress_test", "stress":
		return StressTest
	default:
		return Burst
	}
}

// knownMethods is the set of HTTP methods the engine recognizes explicitly;
// anything else falls back to GET, per spec.
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true, "PATCH": true,
}

// MaxWarmupConnections bounds both the idle connection pool size (§4.1) and
// the number of parallel warm-up probes fired before a burst (§4.4).
const MaxWarmupConnections = 1000

// TestConfig is the immutable, shared-read-only input for one run.
//
// Zero-value fields are filled by Normalize: Method defaults to GET,
// TimeoutMs to 10000, Mode to Burst.
type TestConfig struct {
	URL          string            `json:"url"`
	Method       string            `json:"method"`
	Headers      map[string]string `json:"headers,omitempty"`
	Body         []byte            `json:"body,omitempty"`
	VirtualUsers int               `json:"virtual_users"`
	DurationSecs int               `json:"duration_secs,omitempty"`
	Iterations   int               `json:"iterations,omitempty"`
	Mode         Mode              `json:"mode"`
	TimeoutMs    int               `json:"timeout_ms"`
	ThinkTimeMs  int               `json:"think_time_ms,omitempty"`
}

// NormalizedMethod returns the normalized (uppercase, known-set) HTTP method,
// falling back to GET for anything unrecognized or empty, the same way
// fhttp.HTTPOptions.Method() resolves its method field.
func (c *TestConfig) NormalizedMethod() string {
	m := strings.ToUpper(strings.TrimSpace(c.Method))
	if !knownMethods[m] {
		return "GET"
	}
	return m
}

// Normalize fills zero-value fields with their documented defaults and
// lowercases header keys in place. It does not validate the URL; Validate
// does that separately so callers can distinguish "needs defaults" from
// "is usable".
func (c *TestConfig) Normalize() {
	if c.Method == "" {
		c.Method = "GET"
	}
	if c.TimeoutMs <= 0 {
		c.TimeoutMs = 10000
	}
	if c.VirtualUsers <= 0 {
		c.VirtualUsers = 100
	}
	if c.Iterations <= 0 {
		c.Iterations = 1
	}
	if c.Headers == nil {
		return
	}
	lowered := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		lowered[strings.ToLower(k)] = v
	}
	c.Headers = lowered
}

// Validate reports whether the config is usable for a run: an absolute
// http/https URL and a positive virtual user count.
func (c *TestConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("racecfg: empty url")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("racecfg: invalid url %q: %w", c.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("racecfg: url %q must be http or https", c.URL)
	}
	// Reject malformed internationalized hostnames early; IP literals
	// (including bracketed IPv6, used by loopback test servers) bypass
	// IDNA processing entirely since it only applies to domain names.
	if host := u.Hostname(); net.ParseIP(host) == nil {
		if _, err := idna.Lookup.ToASCII(host); err != nil {
			return fmt.Errorf("racecfg: invalid host %q: %w", host, err)
		}
	}
	if c.VirtualUsers <= 0 {
		return fmt.Errorf("racecfg: virtual_users must be positive, got %d", c.VirtualUsers)
	}
	return nil
}

// GlobalTimeoutMs is the Run Controller's global abort deadline (§4.6):
// double the per-request timeout plus a fixed warm-up buffer.
func (c *TestConfig) GlobalTimeoutMs() int {
	return c.TimeoutMs*2 + 30000
}
