package aggregate

import (
	"testing"
	"time"

	"github.com/racewatch/racewatch/raceresult"
)

func TestAggregateAllSuccess(t *testing.T) {
	var results []raceresult.RequestResult
	for i := 0; i < 50; i++ {
		results = append(results, raceresult.RequestResult{
			ID:                int64(i),
			Success:           true,
			StatusCode:        200,
			LatencyMs:         12.5,
			ResponseSizeBytes: 2,
			ResponseBody:      "OK",
		})
	}
	r := Aggregate(results, 100*time.Millisecond, 0)
	if r.TotalRequests != 50 || r.SuccessCount != 50 || r.ErrorCount != 0 || r.CancelledCount != 0 {
		t.Fatalf("unexpected totals: %+v", r)
	}
	if r.StatusDistribution["2xx"] != 50 || r.StatusDistribution["200"] != 50 {
		t.Fatalf("unexpected status distribution: %+v", r.StatusDistribution)
	}
	if r.Race.UniqueResponses != 1 || r.Race.RaceConditionsDetected != 0 {
		t.Fatalf("unexpected race metrics: %+v", r.Race)
	}
	if r.Race.ResponseConsistency != 100 {
		t.Fatalf("expected consistency 100, got %v", r.Race.ResponseConsistency)
	}
}

func TestAggregateDiverseBodies(t *testing.T) {
	var results []raceresult.RequestResult
	for i := 0; i < 20; i++ {
		results = append(results, raceresult.RequestResult{
			ID:           int64(i),
			Success:      true,
			StatusCode:   200,
			LatencyMs:    1,
			ResponseBody: "REQ-" + string(rune('A'+i)),
		})
	}
	r := Aggregate(results, time.Second, 0)
	if r.Race.UniqueResponses != 20 {
		t.Fatalf("expected 20 unique responses, got %d", r.Race.UniqueResponses)
	}
	if r.Race.RaceConditionsDetected != 19 {
		t.Fatalf("expected 19 race conditions, got %d", r.Race.RaceConditionsDetected)
	}
	want := (20.0 - 19.0) / 20.0 * 100.0
	if r.Race.ResponseConsistency != want {
		t.Fatalf("expected consistency %v, got %v", want, r.Race.ResponseConsistency)
	}
}

func TestAggregateExcludesCancelled(t *testing.T) {
	results := []raceresult.RequestResult{
		{ID: 1, Success: true, StatusCode: 200, LatencyMs: 5},
		{ID: 2, Error: raceresult.ErrCancelled, LatencyMs: 999},
	}
	r := Aggregate(results, time.Second, 1)
	if r.TotalRequests != 2 {
		t.Fatalf("expected total_requests 2, got %d", r.TotalRequests)
	}
	if r.SuccessCount != 1 || r.ErrorCount != 0 || r.CancelledCount != 1 {
		t.Fatalf("unexpected counts: %+v", r)
	}
	if _, ok := r.ErrorTypes[raceresult.ErrCancelled]; ok {
		t.Fatal("cancelled outcomes must not appear in error_types")
	}
}

func TestAggregateEmptyNoBodies(t *testing.T) {
	r := Aggregate(nil, 0, 0)
	if r.Race.ResponseConsistency != 100 {
		t.Fatalf("expected consistency 100 with no bodies, got %v", r.Race.ResponseConsistency)
	}
	if r.RequestsPerSecond != 0 {
		t.Fatalf("expected zero rps for zero duration, got %v", r.RequestsPerSecond)
	}
}

func TestBurstDispatchSpreadUs(t *testing.T) {
	if got := BurstDispatchSpreadUs([]int64{0, 1000, 5000, 0}); got != 4 {
		t.Fatalf("expected 4us spread, got %v", got)
	}
	if got := BurstDispatchSpreadUs([]int64{1000}); got != 0 {
		t.Fatalf("expected 0 for fewer than two samples, got %v", got)
	}
	if got := BurstDispatchSpreadUs(nil); got != 0 {
		t.Fatalf("expected 0 for nil, got %v", got)
	}
}
