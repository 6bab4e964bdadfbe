// Package membroker is an in-process broker.Broker used by tests and by
// standalone demos that want the distributed task layer's API without a
// live Redis — it is not a production backend.
package membroker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chainlens/aiopool/broker"
)

// ErrClosed is returned by any operation called after Close.
var ErrClosed = errors.New("membroker: broker closed")

type queue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items [][]byte
}

// Broker is a goroutine-safe, in-memory implementation of broker.Broker
// backed by a map of FIFO slices, one per queue name.
type Broker struct {
	mu     sync.Mutex
	queues map[string]*queue
	closed bool
}

// New creates an empty in-memory broker.
func New() *Broker {
	return &Broker{queues: make(map[string]*queue)}
}

func (b *Broker) queueFor(name string) (*queue, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	q, ok := b.queues[name]
	if !ok {
		q = &queue{}
		q.cond = sync.NewCond(&q.mu)
		b.queues[name] = q
	}
	return q, nil
}

func (b *Broker) PushBlocking(ctx context.Context, name string, payload []byte) error {
	q, err := b.queueFor(name)
	if err != nil {
		return err
	}
	q.mu.Lock()
	q.items = append(q.items, payload)
	q.cond.Signal()
	q.mu.Unlock()
	return nil
}

func (b *Broker) PopBlocking(ctx context.Context, name string, timeout time.Duration) ([]byte, error) {
	q, err := b.queueFor(name)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-time.After(time.Until(deadline)):
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		case <-ctx.Done():
			q.mu.Lock()
			q.cond.Broadcast()
			q.mu.Unlock()
		case <-done:
		}
	}()

	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !time.Now().Before(deadline) {
			return nil, broker.ErrTimeout
		}
		q.cond.Wait()
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, nil
}

func (b *Broker) Length(ctx context.Context, name string) (int64, error) {
	q, err := b.queueFor(name)
	if err != nil {
		return 0, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

func (b *Broker) Clear(ctx context.Context, name string) error {
	q, err := b.queueFor(name)
	if err != nil {
		return err
	}
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
	return nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

var _ broker.Broker = (*Broker)(nil)
