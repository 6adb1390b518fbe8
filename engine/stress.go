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

// waveDuration is the fixed per-wave time slice (§4.5.4).
const waveDuration = 5 * time.Second

// stressErrorRatioLimit is the wave error ratio above which StressTest
// stops (§4.5.4).
const stressErrorRatioLimit = 0.30

// stressMaxUsers is the concurrency ceiling at which StressTest stops
// regardless of error ratio (§4.5.4).
const stressMaxUsers = 10000

// RunStressTest finds the failure threshold by doubling concurrency each
// 5-second wave until the error ratio exceeds 30%, the concurrency cap
// is reached, or the run is cancelled (§4.5.4).
func RunStressTest(client *http.Client, cfg *racecfg.TestConfig, tok cancel.Token, progress ProgressFunc) raceresult.TestResult {
	current := cfg.VirtualUsers
	state := &sustainedLoopState{}
	var requestID atomic.Int64
	globalStart := time.Now()

	for {
		if tok.Cancelled() {
			break
		}
		log.Debugf("stress: wave at %d concurrent users", current)

		sem := semaphore.NewWeighted(int64(current))
		var wg sync.WaitGroup
		var waveCompleted, waveErrors atomic.Int64
		waveStart := time.Now()

		for time.Since(waveStart) < waveDuration && !tok.Cancelled() {
			if !acquirePermit(tok.Context(), sem, tok) {
				break
			}
			id := requestID.Add(1) - 1
			spawnSustainedTask(&wg, client, cfg, tok, id, sem, state, progress, func(success bool) {
				waveCompleted.Add(1)
				if !success {
					waveErrors.Add(1)
				}
			})
		}
		wg.Wait()

		completed := waveCompleted.Load()
		errors := waveErrors.Load()
		if completed > 0 && float64(errors)/float64(completed) > stressErrorRatioLimit {
			log.Infof("stress: limit reached at %d users (%d/%d errors)", current, errors, completed)
			break
		}
		if current >= stressMaxUsers {
			break
		}
		current *= 2
	}

	r := aggregate.Aggregate(state.results, time.Since(globalStart), int(state.cancelledCount.Load()))
	r.WasCancelled = tok.Cancelled()
	return r
}
