// Package redisbroker implements broker.Broker on top of Redis lists,
// grounded on the teacher's Redis client usage in
// chainlens/backend/internal/cache/cache.go: a thin wrapper around
// *redis.Client that turns driver errors into the package's own
// vocabulary and never leaks redis.Nil past PopBlocking's documented
// ErrTimeout case.
package redisbroker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chainlens/aiopool/broker"
)

// Broker is a Redis-backed broker.Broker. Each queue name is a Redis list;
// PushBlocking is RPUSH, PopBlocking is BLPOP.
type Broker struct {
	client *redis.Client
}

// Config configures the Redis connection.
type Config struct {
	// URL is a redis:// connection string, e.g. "redis://localhost:6379/0".
	URL string
}

// New dials Redis and verifies the connection with a PING, matching the
// teacher's cache.New connection-check-at-construction pattern.
func New(cfg Config) (*Broker, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redisbroker: invalid url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redisbroker: connection failed: %w", err)
	}

	return &Broker{client: client}, nil
}

func (b *Broker) PushBlocking(ctx context.Context, queue string, payload []byte) error {
	if err := b.client.RPush(ctx, queue, payload).Err(); err != nil {
		return fmt.Errorf("redisbroker: push: %w", err)
	}
	return nil
}

func (b *Broker) PopBlocking(ctx context.Context, queue string, timeout time.Duration) ([]byte, error) {
	result, err := b.client.BLPop(ctx, timeout, queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, broker.ErrTimeout
	}
	if err != nil {
		return nil, fmt.Errorf("redisbroker: pop: %w", err)
	}
	// BLPOP replies with [key, value]; we asked for exactly one key.
	if len(result) != 2 {
		return nil, fmt.Errorf("redisbroker: unexpected BLPOP reply shape: %v", result)
	}
	return []byte(result[1]), nil
}

func (b *Broker) Length(ctx context.Context, queue string) (int64, error) {
	n, err := b.client.LLen(ctx, queue).Result()
	if err != nil {
		return 0, fmt.Errorf("redisbroker: length: %w", err)
	}
	return n, nil
}

func (b *Broker) Clear(ctx context.Context, queue string) error {
	if err := b.client.Del(ctx, queue).Err(); err != nil {
		return fmt.Errorf("redisbroker: clear: %w", err)
	}
	return nil
}

func (b *Broker) Close() error {
	return b.client.Close()
}

var _ broker.Broker = (*Broker)(nil)
