package engine

import "sync"

// Barrier is an N-party rendezvous barrier: Wait blocks until N parties
// have called it, then releases all of them atomically (§4.5.1 step 3,
// glossary "Rendezvous barrier"). No suspension point here is cancel-
// aware by design — racing the barrier wait against cancellation would
// strand the other parties and deadlock the run (§4.5.1 step 4c, §9).
//
// golang.org/x/sync ships errgroup, semaphore and singleflight but no
// generic rendezvous barrier, so this is a small stdlib sync.Cond-based
// type (see DESIGN.md) rather than an imported one.
type Barrier struct {
	n          int
	mu         sync.Mutex
	cond       *sync.Cond
	arrived    int
	generation int
}

// NewBarrier returns a Barrier for exactly n parties.
func NewBarrier(n int) *Barrier {
	b := &Barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks the calling goroutine until n goroutines have called Wait,
// then releases all of them.
func (b *Barrier) Wait() {
	b.mu.Lock()
	defer b.mu.Unlock()
	gen := b.generation
	b.arrived++
	if b.arrived == b.n {
		b.arrived = 0
		b.generation++
		b.cond.Broadcast()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
}
