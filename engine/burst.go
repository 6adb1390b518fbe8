package engine

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/racewatch/racewatch/aggregate"
	"github.com/racewatch/racewatch/cancel"
	"github.com/racewatch/racewatch/executor"
	"github.com/racewatch/racewatch/racecfg"
	"github.com/racewatch/racewatch/raceresult"
	"github.com/racewatch/racewatch/rhttp"
	"github.com/racewatch/racewatch/warmup"
)

// RunBurst fires cfg.VirtualUsers workers at (nearly) the same instant
// via a rendezvous barrier, to expose race conditions and tail-latency
// pathologies (§4.5.1).
func RunBurst(client *http.Client, cfg *racecfg.TestConfig, tok cancel.Token, progress ProgressFunc) raceresult.TestResult {
	if tok.Cancelled() {
		return raceresult.Empty("", true)
	}

	n := cfg.VirtualUsers
	warm := warmup.Run(client, cfg.URL, n, tok)

	barrier := NewBarrier(n)
	dispatchNanos := make([]int64, n)
	var completed, cancelledCount atomic.Int64
	var resultsMu sync.Mutex
	results := make([]raceresult.RequestResult, 0, n)

	var wg sync.WaitGroup
	wg.Add(n)
	globalStart := time.Now()

	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()

			// Pre-build before touching the barrier (§4.5.1 step 4a):
			// post-barrier work must be pure I/O.
			req, err := rhttp.BuildRequest(tok.Context(), cfg)
			if err != nil {
				result := raceresult.RequestResult{
					ID:    int64(i),
					Error: raceresult.BuildErrorKind(err.Error()),
				}
				emit(&completed, n, progress, &resultsMu, &results, result)
				return
			}

			// Barrier wait is never raced against cancellation (§4.5.1
			// step 4c, §9): racing here would strand the other parties.
			barrier.Wait()

			if tok.Cancelled() {
				cancelledCount.Add(1)
				result := raceresult.RequestResult{
					ID:    int64(i),
					Error: raceresult.ErrCancelled,
				}
				emit(&completed, n, progress, &resultsMu, &results, result)
				return
			}

			dispatchNanos[i] = time.Since(globalStart).Nanoseconds()

			result, err := executor.Execute(client, req, int64(i), tok)
			if err == executor.Aborted {
				// Mid-body-read abort: accounted for via cancelledCount,
				// no outcome is emitted (§5).
				cancelledCount.Add(1)
				completed.Add(1)
				return
			}
			if result.Error == raceresult.ErrCancelled {
				cancelledCount.Add(1)
			}
			emit(&completed, n, progress, &resultsMu, &results, result)
		}(i)
	}

	wg.Wait()

	totalDuration := time.Since(globalStart)
	wasCancelled := tok.Cancelled()

	resultsMu.Lock()
	raw := results
	resultsMu.Unlock()

	r := aggregate.Aggregate(raw, totalDuration, int(cancelledCount.Load()))
	r.BurstDispatchUs = aggregate.BurstDispatchSpreadUs(dispatchNanos)
	r.WarmupMs = float64(warm.Elapsed.Microseconds()) / 1000.0
	r.WasCancelled = wasCancelled
	return r
}

// emit appends a completed outcome and fires progress, mirroring §4.5.1
// step 4g's "increment completed, emit progress, append to collector"
// sequencing. A short-held lock guards the shared slice; this is
// adequate because the push is O(1) and contention is low compared to
// send/recv latency (§9).
func emit(completed *atomic.Int64, n int, progress ProgressFunc, mu *sync.Mutex, results *[]raceresult.RequestResult, result raceresult.RequestResult) {
	done := completed.Add(1)
	if progress != nil {
		progress(float32(done)/float32(n)*100.0, result)
	}
	mu.Lock()
	*results = append(*results, result)
	mu.Unlock()
}
