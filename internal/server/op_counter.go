package server

import "sync"

// opCounter tallies API operation outcomes for the health endpoint.
type opCounter struct {
	counts map[string]int
	mu     sync.Mutex
}

func newOpCounter() *opCounter {
	return &opCounter{counts: make(map[string]int)}
}

func (oc *opCounter) Count(op string) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.counts[op]++
}

func (oc *opCounter) Snapshot() map[string]int {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	out := make(map[string]int, len(oc.counts))
	for op, n := range oc.counts {
		out[op] = n
	}
	return out
}
