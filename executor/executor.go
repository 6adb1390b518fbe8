// Package executor implements the per-request execution state machine
// (§4.3, §4.7): send a pre-built request, read its body, and classify
// the outcome, cancellation-aware at both suspension points.
package executor

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/racewatch/racewatch/cancel"
	"github.com/racewatch/racewatch/raceresult"
)

// Aborted is returned by Execute when cancellation arrives mid-body-read:
// per §5, this case produces no RequestResult at all (the caller accounts
// for it via its own cancelled-count atomic before the abort), so Execute
// signals it distinctly from a normal (possibly Cancelled) outcome.
var Aborted = &abortedSentinel{}

type abortedSentinel struct{}

func (*abortedSentinel) Error() string { return "executor: aborted mid-body-read" }

// Execute runs one pre-built request to completion (§4.3 steps 1-6).
//
// id is the monotonically assigned RequestResult.ID (§3). client is the
// shared HTTP Client Pool instance (§4.1). tok is the run's cancellation
// token.
//
// Returns (result, nil) for every outcome except a mid-body-read abort,
// which returns (zero-value, Aborted) per §5's accounting rule: the
// caller must not append the zero-value result to its timeline, it must
// only increment its own cancelled counter.
func Execute(client *http.Client, req *http.Request, id int64, tok cancel.Token) (raceresult.RequestResult, error) {
	sendStart := time.Now()
	timestampMs := sendStart.UnixMilli()

	respCh := make(chan *http.Response, 1)
	errCh := make(chan error, 1)
	go func() {
		resp, err := client.Do(req)
		if err != nil {
			errCh <- err
			return
		}
		respCh <- resp
	}()

	select {
	case <-tok.Done():
		// Drain in the background so the goroutine above never leaks
		// waiting to send on an unread channel.
		go drainEventualResponse(respCh, errCh)
		return raceresult.RequestResult{
			ID:          id,
			Success:     false,
			Error:       raceresult.ErrCancelled,
			LatencyMs:   msSince(sendStart),
			TimestampMs: timestampMs,
		}, nil
	case err := <-errCh:
		return raceresult.RequestResult{
			ID:          id,
			Success:     false,
			Error:       raceresult.ClassifyTransportError(err),
			LatencyMs:   msSince(sendStart),
			TimestampMs: timestampMs,
		}, nil
	case resp := <-respCh:
		return readAndClassify(resp, id, timestampMs, sendStart, tok)
	}
}

// readAndClassify performs the cancel-aware body read (§4.3 step 3) and
// classifies the final outcome.
func readAndClassify(resp *http.Response, id int64, timestampMs int64, sendStart time.Time, tok cancel.Token) (raceresult.RequestResult, error) {
	defer resp.Body.Close()

	type readOutcome struct {
		body []byte
		err  error
	}
	readCh := make(chan readOutcome, 1)
	go func() {
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyReadBytes))
		readCh <- readOutcome{body: data, err: err}
	}()

	select {
	case <-tok.Done():
		return raceresult.RequestResult{}, Aborted
	case out := <-readCh:
		size := len(out.body)
		success := resp.StatusCode >= 200 && resp.StatusCode < 300
		result := raceresult.RequestResult{
			ID:                id,
			Success:           success,
			StatusCode:        resp.StatusCode,
			LatencyMs:         msSince(sendStart),
			ResponseSizeBytes: size,
			TimestampMs:       timestampMs,
			ResponseBody:      previewBody(out.body),
		}
		if !success {
			result.Error = raceresult.HTTPErrorKind(resp.StatusCode)
		}
		return result, nil
	}
}

// maxBodyReadBytes caps how much of the response body this executor will
// ever read into memory; the race-detection preview only needs the first
// BodyPreviewBytes runes, but status classification and size accounting
// want the real (bounded) size, so this is generously larger than the
// preview bound rather than equal to it.
const maxBodyReadBytes = 1 << 20 // 1 MiB

func previewBody(body []byte) string {
	s := strings.ToValidUTF8(string(body), "�")
	count := 0
	for i := range s {
		if count == raceresult.BodyPreviewBytes {
			return s[:i]
		}
		count++
	}
	return s
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

// drainEventualResponse closes a response body that arrives after the
// caller has already returned on cancellation, so the connection gets
// returned to the pool instead of leaking.
func drainEventualResponse(respCh <-chan *http.Response, errCh <-chan error) {
	select {
	case resp := <-respCh:
		resp.Body.Close()
	case <-errCh:
	case <-time.After(30 * time.Second):
	}
}
