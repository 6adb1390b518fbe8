package racecfg

import (
	"testing"

	"fortio.org/assert"
)

func TestNormalizedMethod(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "GET"},
		{"get", "GET"},
		{"PoSt", "POST"},
		{"TRACE", "GET"}, // unknown method falls back
		{"delete", "DELETE"},
	}
	for _, tt := range tests {
		c := TestConfig{Method: tt.in}
		assert.Equal(t, c.NormalizedMethod(), tt.want, "method %q", tt.in)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	c := TestConfig{Headers: map[string]string{"Content-Type": "application/json"}}
	c.Normalize()
	assert.Equal(t, c.Method, "GET")
	assert.Equal(t, c.TimeoutMs, 10000)
	assert.Equal(t, c.VirtualUsers, 100)
	assert.Equal(t, c.Iterations, 1)
	assert.Equal(t, c.Headers["content-type"], "application/json")
}

func TestValidate(t *testing.T) {
	c := TestConfig{URL: "ftp://example.com", VirtualUsers: 10}
	if err := c.Validate(); err == nil {
		t.Errorf("expected error for non-http scheme")
	}
	c = TestConfig{URL: "https://example.com", VirtualUsers: 0}
	if err := c.Validate(); err == nil {
		t.Errorf("expected error for zero virtual users")
	}
	c = TestConfig{URL: "https://example.com", VirtualUsers: 5}
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateIPLiteralHost(t *testing.T) {
	c := TestConfig{URL: "http://127.0.0.1:8080/echo", VirtualUsers: 1}
	if err := c.Validate(); err != nil {
		t.Errorf("IP literal host should bypass IDNA validation: %v", err)
	}
}

func TestValidateRejectsInvalidIDNHost(t *testing.T) {
	c := TestConfig{URL: "http://-bad-.example.com", VirtualUsers: 1}
	if err := c.Validate(); err == nil {
		t.Errorf("expected error for malformed hostname label")
	}
}

func TestGlobalTimeoutMs(t *testing.T) {
	c := TestConfig{TimeoutMs: 1000}
	assert.Equal(t, c.GlobalTimeoutMs(), 32000)
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"":           Burst,
		"burst":      Burst,
		"Constant":   Constant,
		"ramp-up":    RampUp,
		"STRESSTEST": StressTest,
		"nonsense":   Burst,
	}
	for in, want := range tests {
		assert.Equal(t, ParseMode(in), want, "mode %q", in)
	}
}
