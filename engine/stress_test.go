package engine

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/racewatch/racewatch/cancel"
	"github.com/racewatch/racewatch/racecfg"
)

func TestRunStressTestStopsOnErrorRatio(t *testing.T) {
	var reqCount int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&reqCount, 1)
		if n%2 == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	cfg := racecfg.TestConfig{URL: srv.URL, Method: "GET", VirtualUsers: 4, TimeoutMs: 2000}
	cfg.Normalize()

	src := cancel.NewSource()
	start := time.Now()
	r := RunStressTest(srv.Client(), &cfg, src.Token(), nil)
	elapsed := time.Since(start)

	// 50% error ratio exceeds the 30% stop threshold, so this should stop
	// after the first or second wave rather than growing to 10000 users.
	if elapsed > 20*time.Second {
		t.Fatalf("expected stress test to stop early, took %v", elapsed)
	}
	if r.TotalRequests == 0 {
		t.Fatal("expected some requests to have been made")
	}
}

func TestRunStressTestCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	cfg := racecfg.TestConfig{URL: srv.URL, Method: "GET", VirtualUsers: 2, TimeoutMs: 10000}
	cfg.Normalize()

	src := cancel.NewSource()
	src.Cancel()

	r := RunStressTest(srv.Client(), &cfg, src.Token(), nil)
	if !r.WasCancelled {
		t.Fatal("expected WasCancelled true")
	}
}
