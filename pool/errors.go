package pool

import "errors"

// Sentinel errors returned by Pool and StrictPool.
var (
	ErrPoolClosed    = errors.New("pool: closed")
	ErrQueueFull     = errors.New("pool: staging queue full")
	ErrInvalidConfig = errors.New("pool: invalid configuration")
)
