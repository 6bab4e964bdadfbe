// Package broker defines the external FIFO store contract the distributed
// task layer (package task) treats as an opaque collaborator. The broker
// itself — its persistence guarantees, reconnect behavior, and clustering
// — is out of scope; this package only fixes the shape every backend must
// expose.
package broker

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by PopBlocking when no payload arrives within the
// requested timeout. It is not a failure of the broker connection and
// never terminates a task's consume loop.
var ErrTimeout = errors.New("broker: pop timed out")

// Broker is an ordered FIFO key/value store used as the transport for the
// distributed task layer. Every queue key is an independent FIFO list.
type Broker interface {
	// PushBlocking appends payload to the tail of queue, blocking until
	// the push completes (the reference Redis implementation's RPUSH does
	// not itself block on capacity, but the interface reserves the right
	// for a backend that does).
	PushBlocking(ctx context.Context, queue string, payload []byte) error

	// PopBlocking removes and returns the head of queue, waiting up to
	// timeout for an item to appear. It returns ErrTimeout, not an error
	// wrapping it, when the wait expires with no item.
	PopBlocking(ctx context.Context, queue string, timeout time.Duration) ([]byte, error)

	// Length reports the current element count of queue, best-effort.
	Length(ctx context.Context, queue string) (int64, error)

	// Clear removes every element of queue.
	Clear(ctx context.Context, queue string) error

	// Close releases the broker's underlying connection(s).
	Close() error
}
