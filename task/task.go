// Package task layers a minimal distributed task queue over package pool:
// Register binds a function to a named broker queue, producing a handle
// that can submit calls for another process to run, or consume calls
// pushed by another process into a local back-pressured pool.
package task

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chainlens/aiopool/broker"
	"github.com/chainlens/aiopool/pool"
)

// call is the wire envelope pushed to the broker: the argument value for
// one invocation of the bound function.
type call[A any] struct {
	Args A
}

// Task binds a function to a broker queue plus a local consumer pool.
type Task[A any, R any] struct {
	cfg        Config
	fn         func(context.Context, A) (R, error)
	localPool  *pool.Pool[R]
	broker     broker.Broker
	serializer Serializer[call[A]]

	seq atomic.Uint64

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Register binds fn to cfg.QueueName and starts its local consumer pool.
// The returned Task lives for as long as the caller keeps it (or the
// process), whichever ends first — there is no implicit global registry
// for tasks the way there is for Pool.
func Register[A any, R any](fn func(context.Context, A) (R, error), cfg Config) (*Task[A, R], error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	localPool, err := pool.NewPool[R](pool.Config{
		MaxConcurrency: cfg.MaxConcurrency,
		MaxQueueSize:   cfg.MaxQueueSize,
	})
	if err != nil {
		return nil, err
	}

	return &Task[A, R]{
		cfg:        cfg,
		fn:         fn,
		localPool:  localPool,
		broker:     cfg.Broker,
		serializer: newSerializer[call[A]](cfg.Mode),
		stopCh:     make(chan struct{}),
	}, nil
}

// LocalPool returns the pool backing this task's Consume loop, for
// observability surfaces that want Pool.Stats() without reimplementing it.
func (t *Task[A, R]) LocalPool() *pool.Pool[R] {
	return t.localPool
}

// Call runs fn directly, bypassing the broker entirely.
func (t *Task[A, R]) Call(ctx context.Context, args A) (R, error) {
	return t.fn(ctx, args)
}

// Submit serializes args and pushes it onto the broker queue, returning
// once the push completes. It does not wait for any consumer to run it,
// and it does not return a result — results of broker-dispatched calls are
// not delivered back to the submitter.
func (t *Task[A, R]) Submit(ctx context.Context, args A) error {
	payload, err := t.serializer.Serialize(call[A]{Args: args})
	if err != nil {
		return err
	}
	if err := t.broker.PushBlocking(ctx, t.cfg.QueueName, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}
	return nil
}

// Consume pops payloads from the broker and runs them through the local
// pool until ctx is cancelled, Stop is called, a broker error (other
// than a pop timeout) occurs, or the local pool's Submit fails (for
// example after Close has shut it down). pollTimeout bounds each individual
// PopBlocking call so Stop takes effect promptly.
//
// The pop-then-submit ordering here is what gives the consumer
// back-pressure: the next PopBlocking call only happens after the local
// pool's blocking Submit for the previous item returns, so a full local
// staging queue stalls the broker pop rather than letting the consumer
// drain the broker into local memory ahead of processing.
func (t *Task[A, R]) Consume(ctx context.Context, pollTimeout time.Duration) error {
	for {
		select {
		case <-t.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		payload, err := t.broker.PopBlocking(ctx, t.cfg.QueueName, pollTimeout)
		if errors.Is(err, broker.ErrTimeout) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
		}

		envelope, err := t.serializer.Deserialize(payload)
		if err != nil {
			log.Printf("task %s: dropping undecodable payload: %v", t.cfg.QueueName, err)
			continue
		}

		unitID := fmt.Sprintf("%s-%d", t.cfg.QueueName, t.seq.Add(1))
		future, err := t.localPool.Submit(ctx, func(ctx context.Context) (R, error) {
			return t.fn(ctx, envelope.Args)
		}, true)
		if err != nil {
			return fmt.Errorf("task %s: local pool rejected work: %w", t.cfg.QueueName, err)
		}
		go t.logOnFailure(unitID, future)
	}
}

func (t *Task[A, R]) logOnFailure(unitID string, future *pool.Future[R]) {
	if _, err := future.Get(context.Background()); err != nil {
		taskErr := &TaskError{TaskID: unitID, Err: err}
		var panicErr *pool.PanicError
		if errors.As(err, &panicErr) {
			taskErr.Stack = panicErr.Stack
		}
		log.Print(taskErr)
	}
}

// Stop signals Consume to return after its current pop cycle; it does not
// drain the local pool. Safe to call more than once.
func (t *Task[A, R]) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
}

// Close stops Consume and shuts down the local pool, waiting for every
// already-accepted unit to finish. It does not close the broker, which may
// be shared with other tasks — the caller owns that lifecycle.
func (t *Task[A, R]) Close() error {
	t.Stop()
	return t.localPool.Shutdown(true)
}

// QueueLength reports the broker's current element count for this task's
// queue.
func (t *Task[A, R]) QueueLength(ctx context.Context) (int64, error) {
	return t.broker.Length(ctx, t.cfg.QueueName)
}

// ClearQueue purges every pending payload from this task's broker queue.
func (t *Task[A, R]) ClearQueue(ctx context.Context) error {
	return t.broker.Clear(ctx, t.cfg.QueueName)
}

// Consumer is the type-erased view of Task[A, R] that BatchConsume needs.
type Consumer interface {
	Consume(ctx context.Context, pollTimeout time.Duration) error
}

// BatchConsume runs Consume on every given task concurrently, returning
// once all of them have stopped. Errors from individual tasks are joined,
// not short-circuited — one task's broker failure does not stop the
// others from continuing to consume.
func BatchConsume(ctx context.Context, tasks []Consumer, pollTimeout time.Duration) error {
	var wg sync.WaitGroup
	errs := make([]error, len(tasks))
	for i, c := range tasks {
		i, c := i, c
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = c.Consume(ctx, pollTimeout)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}
