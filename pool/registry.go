package pool

import (
	"context"
	"log"
	"sync"
)

// shutdownable is the type-erased view of a Pool[T] the registry needs: it
// drives the drain hook without needing to know T.
type shutdownable interface {
	Shutdown(wait bool) error
	shutdownContext(ctx context.Context) error
}

// poolRegistry is a process-wide set of live pools, used to implement
// ShutdownAll — the drain hook a program calls at the end of its entry
// point so that work submitted without a tracked Future is never silently
// lost when the process returns.
type poolRegistry struct {
	mu    sync.Mutex
	seq   uint64
	pools map[uint64]shutdownable
}

var registry = &poolRegistry{pools: make(map[uint64]shutdownable)}

func (r *poolRegistry) register(p shutdownable) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	id := r.seq
	r.pools[id] = p
	return id
}

func (r *poolRegistry) unregister(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pools, id)
}

func (r *poolRegistry) snapshot() []shutdownable {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shutdownable, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, p)
	}
	return out
}

// ShutdownAll drains every pool currently registered, waiting for each to
// finish processing every unit it already accepted, bounded by ctx. It is
// the drain hook users place at the end of an async entry point —
// submit-and-forget programs otherwise return with unprocessed units still
// staged and workers idle-blocked on an empty queue. Safe to call more than
// once: each pool's own shutdown is idempotent, and a pool unregisters
// itself once shut down. A pool whose drain doesn't finish before ctx is
// done is logged and skipped rather than left to hang the rest.
func ShutdownAll(ctx context.Context) {
	for _, p := range registry.snapshot() {
		if err := p.shutdownContext(ctx); err != nil {
			log.Printf("pool: shutdown all: %v", err)
		}
	}
}
