// Package warmup fires parallel lightweight HEAD probes to prime a run's
// connection pool before a burst (§4.4).
package warmup

import (
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fortio.org/log"

	"github.com/racewatch/racewatch/cancel"
	"github.com/racewatch/racewatch/racecfg"
	"github.com/racewatch/racewatch/rhttp"
)

// Result is the warm-up outcome: elapsed wall time and successful probe
// count, as named in §4.4.
type Result struct {
	Elapsed   time.Duration
	Successes int
	Attempted int
}

// Run spawns min(n, MaxWarmupConnections) parallel HEAD probes against
// url, using golang.org/x/sync/errgroup the way the teacher's own
// httprunner.go hand-rolls an equivalent type for parallel warmup
// goroutines (§4.4, DESIGN.md). Each probe is cut short by tok firing.
// Warm-up failures are advisory only: Run never returns an error, it
// only logs when fewer than half the probes succeed.
func Run(client *http.Client, url string, n int, tok cancel.Token) Result {
	start := time.Now()
	attempted := n
	if attempted > racecfg.MaxWarmupConnections {
		attempted = racecfg.MaxWarmupConnections
	}
	if attempted <= 0 {
		return Result{}
	}

	var successes int64
	g, ctx := errgroup.WithContext(tok.Context())
	for i := 0; i < attempted; i++ {
		g.Go(func() error {
			req, err := rhttp.BuildWarmupProbe(ctx, url)
			if err != nil {
				return nil // build failure during warmup is advisory, not fatal
			}
			resp, err := client.Do(req)
			if err != nil {
				return nil
			}
			resp.Body.Close()
			atomic.AddInt64(&successes, 1)
			return nil
		})
	}
	_ = g.Wait() // errgroup members never return a non-nil error here

	elapsed := time.Since(start)
	succ := int(atomic.LoadInt64(&successes))
	if succ*2 < attempted {
		log.Warnf("warmup: only %d/%d probes succeeded for %s", succ, attempted, url)
	}
	return Result{Elapsed: elapsed, Successes: succ, Attempted: attempted}
}
