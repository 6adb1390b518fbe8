package engine

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/racewatch/racewatch/aggregate"
	"github.com/racewatch/racewatch/cancel"
	"github.com/racewatch/racewatch/racecfg"
	"github.com/racewatch/racewatch/raceresult"
)

// RunConstant maintains exactly N in-flight requests for DurationSecs
// seconds (§4.5.2).
func RunConstant(client *http.Client, cfg *racecfg.TestConfig, tok cancel.Token, progress ProgressFunc) raceresult.TestResult {
	n := cfg.VirtualUsers
	duration := time.Duration(cfg.DurationSecs) * time.Second
	if duration <= 0 {
		duration = 10 * time.Second
	}

	sem := semaphore.NewWeighted(int64(n))
	state := &sustainedLoopState{}
	var wg sync.WaitGroup
	var requestID atomic.Int64

	start := time.Now()
	for time.Since(start) < duration && !tok.Cancelled() {
		if !acquirePermit(tok.Context(), sem, tok) {
			break
		}
		id := requestID.Add(1) - 1
		spawnSustainedTask(&wg, client, cfg, tok, id, sem, state, progress, nil)
	}
	wg.Wait()

	totalDuration := time.Since(start)
	r := aggregate.Aggregate(state.results, totalDuration, int(state.cancelledCount.Load()))
	r.WasCancelled = tok.Cancelled()
	return r
}
