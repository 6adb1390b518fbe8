package engine

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/racewatch/racewatch/cancel"
	"github.com/racewatch/racewatch/racecfg"
)

func TestRunRampUpCompletes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	cfg := racecfg.TestConfig{URL: srv.URL, Method: "GET", VirtualUsers: 10, DurationSecs: 1, TimeoutMs: 5000}
	cfg.Normalize()

	src := cancel.NewSource()
	start := time.Now()
	r := RunRampUp(srv.Client(), &cfg, src.Token(), nil)
	elapsed := time.Since(start)

	if elapsed > 3*time.Second {
		t.Fatalf("expected ramp-up to finish within its 1s budget, took %v", elapsed)
	}
	if r.TotalRequests == 0 {
		t.Fatal("expected some requests to have been made")
	}
}
