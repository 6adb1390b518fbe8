// Package engine implements the four Mode Engines (§4.5) — Burst,
// Constant, RampUp, StressTest — and the dispatcher that selects among
// them. All four share the Request Executor and Outcome Aggregator;
// they differ only in scheduling.
package engine

import (
	"fmt"
	"net/http"

	"github.com/racewatch/racewatch/cancel"
	"github.com/racewatch/racewatch/racecfg"
	"github.com/racewatch/racewatch/raceresult"
)

// ProgressFunc is the fire-and-forget progress callback a host wires up
// (§6): percent is 0-100, result is the just-produced outcome. The core
// never imports a transport package for this; delivering it anywhere
// (websocket, SSE, log line) is entirely the host's concern.
type ProgressFunc func(percent float32, result raceresult.RequestResult)

// noopProgress is used when a caller passes a nil ProgressFunc.
func noopProgress(float32, raceresult.RequestResult) {}

// Run dispatches cfg to the mode engine named by cfg.Mode. This restores
// the original engine's full dispatch capability (engine.rs::run), which
// its own Tauri command boundary never exercised beyond Burst — see
// DESIGN.md / SPEC_FULL §12.
func Run(client *http.Client, cfg *racecfg.TestConfig, tok cancel.Token, progress ProgressFunc) (raceresult.TestResult, error) {
	if progress == nil {
		progress = noopProgress
	}
	switch cfg.Mode {
	case racecfg.Burst:
		return RunBurst(client, cfg, tok, progress), nil
	case racecfg.Constant:
		return RunConstant(client, cfg, tok, progress), nil
	case racecfg.RampUp:
		return RunRampUp(client, cfg, tok, progress), nil
	case racecfg.StressTest:
		return RunStressTest(client, cfg, tok, progress), nil
	default:
		return raceresult.TestResult{}, fmt.Errorf("engine: unknown mode %v", cfg.Mode)
	}
}
