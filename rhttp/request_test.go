package rhttp

import (
	"context"
	"testing"

	"github.com/racewatch/racewatch/racecfg"
)

func TestBuildRequest(t *testing.T) {
	cfg := racecfg.TestConfig{
		URL:     "http://example.com/path",
		Method:  "post",
		Headers: map[string]string{"x-test": "1"},
		Body:    []byte(`{"a":1}`),
	}
	req, err := BuildRequest(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Method != "POST" {
		t.Fatalf("expected POST, got %s", req.Method)
	}
	if req.Header.Get("x-test") != "1" {
		t.Fatalf("expected header to be set")
	}
	if req.Header.Get("User-Agent") != UserAgent {
		t.Fatalf("expected user agent %s", UserAgent)
	}
}

func TestBuildRequestInvalidURL(t *testing.T) {
	cfg := racecfg.TestConfig{URL: "://bad", Method: "GET"}
	if _, err := BuildRequest(context.Background(), &cfg); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestBuildWarmupProbe(t *testing.T) {
	req, err := BuildWarmupProbe(context.Background(), "http://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Method != "HEAD" {
		t.Fatalf("expected HEAD, got %s", req.Method)
	}
}
