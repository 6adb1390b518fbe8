// Package aggregate turns a run's raw per-request outcomes into a
// TestResult (§4.2). Aggregate is a pure function: given the same inputs
// it always produces the same output, with no dependency on wall-clock
// time beyond what is passed in.
package aggregate

import (
	"fmt"
	"strconv"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/racewatch/racewatch/raceresult"
	"github.com/racewatch/racewatch/sizestat"
)

// maxLatencyMicros bounds the histogram's dynamic range to one hour in
// microseconds. TimeoutMs has no upper bound; a latency above one hour is
// rejected by RecordValue and left out of the min/max/avg and percentiles.
const maxLatencyMicros = int64(time.Hour / time.Microsecond)

// histogramSigFigs is the number of significant decimal digits the
// latency histogram preserves, per §4.2.
const histogramSigFigs = 3

// racePrefixScalars is the number of leading Unicode scalars of a
// response body used as its race-detection fingerprint (§4.2).
const racePrefixScalars = 200

// Aggregate computes a TestResult from the raw timeline.
//
// Cancelled outcomes (Error == raceresult.ErrCancelled) are excluded from
// the latency histogram, min/avg/max, and the error-kind histogram, but
// are still counted by the caller into cancelledCount (the mode engine's
// own atomic counter, since a worker that aborts mid-body-read never
// produces a RequestResult at all — see §5).
//
// Callers set BurstDispatchUs and WarmupMs on the returned TestResult
// themselves (Aggregate has no notion of which mode produced the
// timeline); see BurstDispatchSpreadUs for the burst-only helper.
func Aggregate(results []raceresult.RequestResult, totalDuration time.Duration, cancelledCount int) raceresult.TestResult {
	hist := hdrhistogram.New(1, maxLatencyMicros, histogramSigFigs)

	errorTypes := map[string]int{}
	statusDist := map[string]int{}
	uniqueBodies := map[string]struct{}{}
	bodiesConsidered := 0

	successCount, errorCount := 0, 0

	for _, r := range results {
		if r.Error == raceresult.ErrCancelled {
			continue
		}
		if r.Success {
			successCount++
		} else {
			errorCount++
		}
		if r.Error != "" {
			errorTypes[r.Error]++
		}
		if r.StatusCode != 0 {
			statusDist[bucketKey(r.StatusCode)]++
			statusDist[strconv.Itoa(r.StatusCode)]++
		}

		micros := int64(r.LatencyMs * 1000)
		if micros < 1 {
			micros = 1 // clamp to avoid the zero-floor artifact, per §4.2
		}
		_ = hist.RecordValue(micros)

		if r.ResponseBody != "" {
			bodiesConsidered++
			uniqueBodies[fingerprint(r.ResponseBody)] = struct{}{}
		}
	}

	totalRequests := successCount + errorCount + cancelledCount
	durationMs := float64(totalDuration.Microseconds()) / 1000.0

	rps := 0.0
	if totalDuration > 0 {
		rps = float64(successCount+errorCount) / (durationMs / 1000.0)
	}

	uniqueResponses := len(uniqueBodies)
	raceConditions := uniqueResponses - 1
	if raceConditions < 0 {
		raceConditions = 0
	}
	consistency := 100.0
	if bodiesConsidered > 0 {
		consistency = float64(bodiesConsidered-raceConditions) / float64(bodiesConsidered) * 100.0
	}

	return raceresult.TestResult{
		TotalRequests:     totalRequests,
		SuccessCount:      successCount,
		ErrorCount:        errorCount,
		CancelledCount:    cancelledCount,
		TotalDurationMs:   durationMs,
		RequestsPerSecond: rps,
		LatencyMinMs:      microsToMs(hist.Min()),
		LatencyMaxMs:      microsToMs(hist.Max()),
		LatencyAvgMs:      hist.Mean() / 1000.0,
		Latency: raceresult.Percentiles{
			P50:  microsToMs(hist.ValueAtPercentile(50)),
			P90:  microsToMs(hist.ValueAtPercentile(90)),
			P95:  microsToMs(hist.ValueAtPercentile(95)),
			P99:  microsToMs(hist.ValueAtPercentile(99)),
			P999: microsToMs(hist.ValueAtPercentile(99.9)),
		},
		ErrorTypes:         errorTypes,
		StatusDistribution: statusDist,
		Race: raceresult.RaceMetrics{
			RaceConditionsDetected: raceConditions,
			UniqueResponses:        uniqueResponses,
			ResponseConsistency:    consistency,
		},
		Timeline: results,
	}
}

// ResponseSizeStats scans results (skipping cancelled outcomes) into a
// sizestat.Counter of ResponseSizeBytes, for hosts that want min/max/avg
// response size alongside the TestResult. Kept as a separate accessor rather than
// a TestResult field since the core spec's TestResult shape (§3) does
// not include it; supplementary, not required.
func ResponseSizeStats(results []raceresult.RequestResult) sizestat.Counter {
	var sizes sizestat.Counter
	for _, r := range results {
		if r.Error == raceresult.ErrCancelled {
			continue
		}
		sizes.Record(float64(r.ResponseSizeBytes))
	}
	return sizes
}

// BurstDispatchSpreadUs computes the burst dispatch spread (§4.5.1 step
// 6) from the per-VU fire-time array: the max-minus-min of the nonzero
// entries, in microseconds, or zero if fewer than two samples fired.
func BurstDispatchSpreadUs(dispatchNanos []int64) float64 {
	var minV, maxV int64
	count := 0
	for _, v := range dispatchNanos {
		if v == 0 {
			continue
		}
		if count == 0 {
			minV, maxV = v, v
		} else {
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
		count++
	}
	if count < 2 {
		return 0
	}
	return float64(maxV-minV) / 1000.0
}

func bucketKey(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}

func microsToMs(micros int64) float64 {
	return float64(micros) / 1000.0
}

// fingerprint takes the first racePrefixScalars Unicode scalars of a
// (already lossy-decoded) response body preview as its race-detection
// key.
func fingerprint(body string) string {
	count := 0
	for i := range body {
		if count == racePrefixScalars {
			return body[:i]
		}
		count++
	}
	return body
}
