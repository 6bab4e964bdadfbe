package task

import (
	"fmt"

	"github.com/chainlens/aiopool/broker"
)

// Config configures a named task's broker binding and local pool.
type Config struct {
	// QueueName is the broker key this task's calls are pushed to and
	// popped from.
	QueueName string
	// MaxConcurrency sizes the local consumer pool.
	MaxConcurrency int
	// MaxQueueSize sizes the local staging queue. Zero means "use
	// 10 * MaxConcurrency", matching the spec's default.
	MaxQueueSize int
	// Mode selects Binary (opaque, same-codebase) or Structured
	// (JSON, safe across trust boundaries) serialization.
	Mode Mode
	// Broker is the broker this task submits to and consumes from. It is
	// required — Register does not dial one implicitly, since the
	// broker's lifecycle (and whether it's shared by other tasks) is the
	// caller's to own.
	Broker broker.Broker
}

// Validate reports whether c is usable by Register.
func (c Config) Validate() error {
	if c.QueueName == "" {
		return fmt.Errorf("%w: queue_name must not be empty", ErrInvalidConfig)
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("%w: max_concurrency must be > 0, got %d", ErrInvalidConfig, c.MaxConcurrency)
	}
	if c.MaxQueueSize < 0 {
		return fmt.Errorf("%w: max_queue_size must be >= 0, got %d", ErrInvalidConfig, c.MaxQueueSize)
	}
	if c.Broker == nil {
		return fmt.Errorf("%w: broker must not be nil", ErrInvalidConfig)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.MaxQueueSize == 0 {
		c.MaxQueueSize = 10 * c.MaxConcurrency
	}
	return c
}
