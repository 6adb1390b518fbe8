package warmup

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/racewatch/racewatch/cancel"
)

func TestRunAllSucceed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	src := cancel.NewSource()
	res := Run(srv.Client(), srv.URL, 10, src.Token())
	if res.Successes != 10 || res.Attempted != 10 {
		t.Fatalf("expected 10/10 successes, got %+v", res)
	}
}

func TestRunCapsAtMaxWarmupConnections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	src := cancel.NewSource()
	res := Run(srv.Client(), srv.URL, 5000, src.Token())
	if res.Attempted != 1000 {
		t.Fatalf("expected attempted capped to 1000, got %d", res.Attempted)
	}
}

func TestRunZeroVUs(t *testing.T) {
	src := cancel.NewSource()
	res := Run(http.DefaultClient, "http://example.invalid", 0, src.Token())
	if res.Attempted != 0 || res.Successes != 0 {
		t.Fatalf("expected no-op for zero VUs, got %+v", res)
	}
}
