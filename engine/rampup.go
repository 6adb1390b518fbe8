package engine

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"fortio.org/log"

	"github.com/racewatch/racewatch/aggregate"
	"github.com/racewatch/racewatch/cancel"
	"github.com/racewatch/racewatch/racecfg"
	"github.com/racewatch/racewatch/raceresult"
)

// rampSteps is the fixed number of growth stages (§4.5.3).
const rampSteps = 5

// RunRampUp divides DurationSecs into 5 equal steps, growing the
// concurrency cap each step to min(ceil(N/5)*k, N) with a fresh
// semaphore per step so permits never leak across steps (§4.5.3).
func RunRampUp(client *http.Client, cfg *racecfg.TestConfig, tok cancel.Token, progress ProgressFunc) raceresult.TestResult {
	maxUsers := cfg.VirtualUsers
	totalDuration := time.Duration(cfg.DurationSecs) * time.Second
	if totalDuration <= 0 {
		totalDuration = 10 * time.Second
	}
	stepDuration := totalDuration / rampSteps
	usersPerStep := (maxUsers + rampSteps - 1) / rampSteps // ceil(N/5)

	state := &sustainedLoopState{}
	var requestID atomic.Int64
	globalStart := time.Now()

	for step := 1; step <= rampSteps; step++ {
		if tok.Cancelled() {
			break
		}
		currentUsers := usersPerStep * step
		if currentUsers > maxUsers {
			currentUsers = maxUsers
		}
		log.Debugf("rampup: step %d/%d at %d concurrent users", step, rampSteps, currentUsers)

		sem := semaphore.NewWeighted(int64(currentUsers))
		var wg sync.WaitGroup
		stepStart := time.Now()

		for time.Since(stepStart) < stepDuration && !tok.Cancelled() {
			if !acquirePermit(tok.Context(), sem, tok) {
				break
			}
			id := requestID.Add(1) - 1
			spawnSustainedTask(&wg, client, cfg, tok, id, sem, state, progress, nil)
		}
		wg.Wait()
	}

	r := aggregate.Aggregate(state.results, time.Since(globalStart), int(state.cancelledCount.Load()))
	r.WasCancelled = tok.Cancelled()
	return r
}
