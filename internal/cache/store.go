package cache

import (
	"context"
	"time"
)

// Store keeps fixed-window counters shared by every API instance. The auth
// rate limiter is its only consumer.
type Store interface {
	// IncrementWithTTL bumps key and returns the new count and the time left
	// in the window. The window starts with the first increment.
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Ping(ctx context.Context) error
	Close() error
}

var _ Store = (*RedisStore)(nil)
