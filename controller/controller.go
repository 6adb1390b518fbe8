// Package controller implements the Run Controller (§4.6): the outer
// entry point that selects a mode, enforces a global timeout, manages a
// single-flight cancellation token, and returns the aggregated result.
package controller

import (
	"sync"
	"sync/atomic"
	"time"

	"fortio.org/log"
	"github.com/google/uuid"

	"github.com/racewatch/racewatch/cancel"
	"github.com/racewatch/racewatch/engine"
	"github.com/racewatch/racewatch/racecfg"
	"github.com/racewatch/racewatch/raceresult"
	"github.com/racewatch/racewatch/rhttp"
)

// preemptWait is how long a new run waits after cancelling a prior one
// before taking over (§4.6: "cancel its token and wait ≈100 ms").
const preemptWait = 100 * time.Millisecond

// HistorySink is the typed interface a host implements to persist
// completed runs (§6 collaborator); the core never implements one
// itself, matching the history store's place as an external
// collaborator (§1).
type HistorySink interface {
	Record(cfg racecfg.TestConfig, result raceresult.TestResult) error
}

// Controller is the process-wide single-flight run controller. The zero
// value is ready to use.
type Controller struct {
	mu      sync.Mutex
	current *cancel.Source
}

// New returns a ready-to-use Controller.
func New() *Controller {
	return &Controller{}
}

// Run pre-empts any in-flight run, installs a fresh cancel token, enforces
// the global timeout, dispatches to the mode engine, and always clears
// the installed token on completion (§4.6). A failure to construct the
// HTTP client is returned to the host rather than panicking (§7).
func (c *Controller) Run(cfg racecfg.TestConfig, progress engine.ProgressFunc) (raceresult.TestResult, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return raceresult.TestResult{}, err
	}

	runID := uuid.NewString()
	src := c.takeOver()
	defer c.clear(src)

	client, err := rhttp.NewClient(cfg.TimeoutMs)
	if err != nil {
		return raceresult.TestResult{}, err
	}

	tok := src.Token()
	globalTimeout := time.Duration(cfg.GlobalTimeoutMs()) * time.Millisecond
	var timedOut atomic.Bool
	timer := time.AfterFunc(globalTimeout, func() {
		timedOut.Store(true)
		log.Warnf("run %s: global timeout (%d ms) fired, cancelling", runID, cfg.GlobalTimeoutMs())
		src.Cancel()
	})
	defer timer.Stop()

	log.Debugf("run %s: starting %s mode=%s vus=%d", runID, cfg.URL, cfg.Mode, cfg.VirtualUsers)

	done := make(chan struct{})
	var result raceresult.TestResult
	var runErr error
	go func() {
		defer close(done)
		result, runErr = engine.Run(client, &cfg, tok, progress)
	}()

	select {
	case <-done:
		// The timer already cancelled the token; every suspension point in
		// every mode engine is cancel-aware and unwinds almost immediately,
		// so prefer the synthesized minimal result over whatever partial
		// timeline the engine handed back (§4.6, scenario S4).
		if timedOut.Load() {
			log.Debugf("run %s: global timeout fired, returning synthesized result", runID)
			return raceresult.Empty(raceresult.ErrGlobalTimeout, true), nil
		}
		if runErr != nil {
			return raceresult.TestResult{}, runErr
		}
		log.Debugf("run %s: finished, %d requests, %d errors", runID, result.TotalRequests, result.ErrorCount)
		return result, nil
	case <-time.After(globalTimeout + gracePeriod):
		// Backstop for a pathological hang that doesn't unwind on
		// cancellation at all; synthesize rather than block the caller
		// forever.
		return raceresult.Empty(raceresult.ErrGlobalTimeout, true), nil
	}
}

// gracePeriod bounds how long Run waits for the engine to unwind after
// the global timeout cancels the token, before giving up and
// synthesizing a result itself.
const gracePeriod = 5 * time.Second

// Stop cancels the in-flight run, if any. Idempotent: OK whether or not
// a run is active (§6, §9 — normalizing an earlier variant that
// returned an error when no run was active).
func (c *Controller) Stop() {
	c.mu.Lock()
	src := c.current
	c.mu.Unlock()
	if src != nil {
		src.Cancel()
	}
}

// takeOver installs a new cancel token, pre-empting any prior run.
func (c *Controller) takeOver() *cancel.Source {
	c.mu.Lock()
	prev := c.current
	next := cancel.NewSource()
	c.current = next
	c.mu.Unlock()

	if prev != nil {
		prev.Cancel()
		time.Sleep(preemptWait)
	}
	return next
}

// clear removes the installed token if it is still the current one
// (a later run may have already pre-empted it).
func (c *Controller) clear(src *cancel.Source) {
	c.mu.Lock()
	if c.current == src {
		c.current = nil
	}
	c.mu.Unlock()
}
