package pool

import (
	"context"
	"runtime/debug"
	"sync"
)

// StrictPool enforces "never more than limit units in flight" without any
// staging queue: Submit itself blocks while the cap is reached, using a
// mutex+condition-variable monitor rather than a staging buffer. Unlike
// Pool, it has no Shutdown protocol — callers either track every Future
// they get back, or call Wait before dropping the pool.
//
// The monitor, not a bare semaphore or event, is what makes "check the
// count and reserve a slot" atomic with respect to both other submitters
// and the completion callback: sync.Cond.Wait releases the mutex and
// parks in one step, so no waiter can observe a stale count between
// unlocking and re-locking.
type StrictPool[T any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	inFlight int
	limit    int
	wg       sync.WaitGroup
}

// NewStrictPool creates a StrictPool bounding in-flight work to limit.
func NewStrictPool[T any](limit int) *StrictPool[T] {
	s := &StrictPool[T]{limit: limit}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Submit blocks until a slot under limit is free, then spawns fn and
// returns its Future immediately (the caller does not wait for fn to run).
// A cancelled ctx aborts the wait for a slot without ever spawning fn; once
// a slot is acquired, the same ctx is passed into fn, so a cancellation that
// lands after the unit has started is still observable inside fn.
func (s *StrictPool[T]) Submit(ctx context.Context, fn Func[T]) (*Future[T], error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}

	future := newFuture[T]()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release()

		var value T
		var err error
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Cause: r, Stack: string(debug.Stack())}
				}
			}()
			value, err = fn(ctx)
		}()
		future.settle(value, err)
	}()
	return future, nil
}

// acquire waits, under the monitor, until inFlight < limit, then reserves
// a slot. The check-and-increment is atomic with respect to concurrent
// acquirers and to release: I1 (in-flight count never exceeds limit) holds
// because insertion only ever happens here, only while holding s.mu, and
// only when the count is already known to be below limit.
func (s *StrictPool[T]) acquire(ctx context.Context) error {
	// A cancellable wait needs a goroutine to break the Cond.Wait park on
	// ctx.Done(); most callers pass context.Background() and never pay for
	// it, so only set this up if ctx can actually be cancelled.
	if ctx.Done() != nil {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-ctx.Done():
				s.mu.Lock()
				s.cond.Broadcast()
				s.mu.Unlock()
			case <-stop:
			}
		}()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for s.inFlight >= s.limit {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.cond.Wait()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.inFlight++
	return nil
}

func (s *StrictPool[T]) release() {
	s.mu.Lock()
	s.inFlight--
	s.cond.Signal()
	s.mu.Unlock()
}

// Run submits fn and blocks until it completes.
func (s *StrictPool[T]) Run(ctx context.Context, fn Func[T]) (T, error) {
	future, err := s.Submit(ctx, fn)
	if err != nil {
		var zero T
		return zero, err
	}
	return future.Get(ctx)
}

// InFlight reports the current in-flight count. Best-effort; intended for
// observability and tests, not for synchronization.
func (s *StrictPool[T]) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Wait blocks until every spawned unit has completed.
func (s *StrictPool[T]) Wait() {
	s.wg.Wait()
}
