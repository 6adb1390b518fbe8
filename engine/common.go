package engine

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/racewatch/racewatch/cancel"
	"github.com/racewatch/racewatch/executor"
	"github.com/racewatch/racewatch/racecfg"
	"github.com/racewatch/racewatch/raceresult"
	"github.com/racewatch/racewatch/rhttp"
)

// sustainedLoopState is the shared bookkeeping Constant, RampUp and
// StressTest all spawn per-request tasks into: a collector protected by
// a short-held lock and a cancelled-count atomic (§4.5.2-§4.5.4 all
// describe the same "semaphore permit, build, send, read" task shape).
type sustainedLoopState struct {
	mu             sync.Mutex
	results        []raceresult.RequestResult
	cancelledCount atomic.Int64
}

func (s *sustainedLoopState) append(r raceresult.RequestResult) {
	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()
}

// acquirePermit acquires one weighted-semaphore permit, racing the
// acquisition against cancellation (§4.5.2: "acquires a permit
// (cancel-racing the acquisition)"). Returns false if cancelled before a
// permit was obtained.
func acquirePermit(ctx context.Context, sem *semaphore.Weighted, tok cancel.Token) bool {
	acquireCtx, cancelAcquire := context.WithCancel(ctx)
	defer cancelAcquire()
	go func() {
		select {
		case <-tok.Done():
			cancelAcquire()
		case <-acquireCtx.Done():
		}
	}()
	return sem.Acquire(acquireCtx, 1) == nil
}

// spawnSustainedTask builds, sends and reads one request under an
// already-acquired semaphore permit, releasing it on completion, and
// records the outcome into state. progress, if non-nil, is invoked with
// percent 0: Constant/RampUp/StressTest report no meaningful percentage
// (§4.5.2).
func spawnSustainedTask(
	wg *sync.WaitGroup,
	client *http.Client,
	cfg *racecfg.TestConfig,
	tok cancel.Token,
	id int64,
	sem *semaphore.Weighted,
	state *sustainedLoopState,
	progress ProgressFunc,
	onDone func(success bool),
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer sem.Release(1)

		req, err := rhttp.BuildRequest(tok.Context(), cfg)
		if err != nil {
			return // a build failure here is silently skipped, as in engine.rs
		}

		result, err := executor.Execute(client, req, id, tok)
		if err == executor.Aborted {
			state.cancelledCount.Add(1)
			if onDone != nil {
				onDone(false)
			}
			return
		}
		if result.Error == raceresult.ErrCancelled {
			state.cancelledCount.Add(1)
		}
		if progress != nil {
			progress(0, result)
		}
		state.append(result)
		thinkTime(cfg.ThinkTimeMs, tok)
		if onDone != nil {
			onDone(result.Success)
		}
	}()
}

// thinkTime pauses for the configured delay between sequential iterations
// in sustained modes (§3), cut short by cancellation.
func thinkTime(ms int, tok cancel.Token) {
	if ms <= 0 {
		return
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
	case <-tok.Done():
	}
}
